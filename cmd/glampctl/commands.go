package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/common/cache"
	"github.com/dumeirei/glamping-backend/internal/common/config"
	"github.com/dumeirei/glamping-backend/internal/common/database"
	"github.com/dumeirei/glamping-backend/internal/common/jwt"
	"github.com/dumeirei/glamping-backend/internal/common/logger"
	bookingService "github.com/dumeirei/glamping-backend/internal/service/booking"
)

// systemActorID 命令行操作写入历史时使用的操作员
const systemActorID int64 = 0

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Init(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// MigrateCmd 建表
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all booking engine tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.AutoMigrate(db); err != nil {
				return err
			}
			logger.Info("database migrated", zap.String("driver", cfg.Database.Driver))
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}

// RecalcCmd 重算预订总额；不带参数时按状态批量重算
func RecalcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recalc [booking-id...]",
		Short: "Recalculate booking totals and repair drift",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			if len(args) == 0 && status == "" {
				return fmt.Errorf("pass booking ids or --status")
			}

			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid booking id %q", arg)
				}
				ids = append(ids, id)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			services := bookingService.NewServices(db, cache.New(nil), nil, cfg, nil)
			if c, ok := services.Notifier.(io.Closer); ok {
				defer c.Close()
			}
			ctx := cmd.Context()

			if status != "" {
				more, err := bookingIDsByStatus(ctx, services.Booking, status)
				if err != nil {
					return err
				}
				ids = append(ids, more...)
			}
			return recalculate(ctx, cmd.OutOrStdout(), services.Booking, ids)
		},
	}
	cmd.Flags().String("status", "", "recalculate every booking in this status")
	return cmd
}

func bookingIDsByStatus(ctx context.Context, svc *bookingService.BookingService, status string) ([]int64, error) {
	const pageSize = 100
	var ids []int64
	for page := 1; ; page++ {
		bookings, total, err := svc.ListBookings(ctx, &bookingService.BookingListRequest{
			Page:     page,
			PageSize: pageSize,
			Status:   status,
		})
		if err != nil {
			return nil, err
		}
		for _, b := range bookings {
			ids = append(ids, b.ID)
		}
		if len(bookings) == 0 || int64(len(ids)) >= total {
			return ids, nil
		}
	}
}

// recalculate 逐个重算，单个失败不影响其余
func recalculate(ctx context.Context, out io.Writer, svc *bookingService.BookingService, ids []int64) error {
	failed := 0
	for _, id := range ids {
		result, err := svc.Recalculate(ctx, systemActorID, id)
		if err != nil {
			failed++
			fmt.Fprintf(out, "booking %d: %v\n", id, err)
			continue
		}
		t := result.Totals
		fmt.Fprintf(out, "booking %d: subtotal %s tax %s total %s\n",
			id, t.SubtotalAmount.StringFixed(2), t.TaxAmount.StringFixed(2), t.TotalAmount.StringFixed(2))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d bookings failed", failed, len(ids))
	}
	return nil
}

// InvalidateQuotesCmd 清除单元报价缓存
func InvalidateQuotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate-quotes <unit-id>",
		Short: "Drop cached quotes of a unit after its pricing changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unitID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || unitID <= 0 {
				return fmt.Errorf("invalid unit id %q", args[0])
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := cache.Init(&cfg.Redis)
			if err != nil {
				return err
			}
			defer cache.Close()

			services := bookingService.NewServices(nil, cache.New(client), nil, cfg, noopNotifier{})
			return services.Quote.InvalidateUnit(cmd.Context(), unitID)
		},
	}
}

// TokenCmd 签发操作员令牌
func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			adminID, _ := cmd.Flags().GetInt64("admin-id")
			role, _ := cmd.Flags().GetString("role")
			if adminID <= 0 {
				return fmt.Errorf("--admin-id is required")
			}
			switch role {
			case jwt.RoleOperator, jwt.RoleManager, jwt.RoleSuperAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			pair, err := jwt.NewManager(&jwt.Config{
				Secret:            cfg.JWT.Secret,
				AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
				RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
				Issuer:            cfg.JWT.Issuer,
			}).GenerateTokenPair(adminID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pair.AccessToken)
			return nil
		},
	}
	cmd.Flags().Int64("admin-id", 0, "operator id")
	cmd.Flags().String("role", jwt.RoleOperator, "operator role")
	return cmd
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, *bookingService.BookingEvent) error { return nil }
func (noopNotifier) Driver() string { return "noop" }
