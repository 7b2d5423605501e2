// Package qrcode 提供预订入住二维码生成
package qrcode

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// RecoveryLevel 纠错级别
type RecoveryLevel int

const (
	// Low 7% 纠错
	Low RecoveryLevel = iota
	// Medium 15% 纠错
	Medium
	// High 25% 纠错
	High
	// Highest 30% 纠错
	Highest
)

// checkInScheme 入住码内容前缀
const checkInScheme = "glamping://checkin"

// Generator 二维码生成器
type Generator struct {
	size          int
	recoveryLevel RecoveryLevel
}

// Option 生成器选项
type Option func(*Generator)

// WithSize 设置二维码尺寸（像素）
func WithSize(size int) Option {
	return func(g *Generator) {
		g.size = size
	}
}

// WithRecoveryLevel 设置纠错级别
func WithRecoveryLevel(level RecoveryLevel) Option {
	return func(g *Generator) {
		g.recoveryLevel = level
	}
}

// NewGenerator 创建二维码生成器
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		size:          256,
		recoveryLevel: Medium,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) level() qrcode.RecoveryLevel {
	switch g.recoveryLevel {
	case Low:
		return qrcode.Low
	case High:
		return qrcode.High
	case Highest:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// GeneratePNG 生成 PNG 格式二维码
func (g *Generator) GeneratePNG(content string) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("二维码内容为空")
	}
	return qrcode.Encode(content, g.level(), g.size)
}

// CheckInContent 构造预订入住码内容
func CheckInContent(bookingNo string) string {
	return checkInScheme + "?booking_no=" + url.QueryEscape(bookingNo)
}

// ParseCheckInContent 从入住码内容解析预订号
func ParseCheckInContent(content string) (string, error) {
	if !strings.HasPrefix(content, checkInScheme+"?") {
		return "", fmt.Errorf("不是入住码: %q", content)
	}
	u, err := url.Parse(content)
	if err != nil {
		return "", fmt.Errorf("解析入住码失败: %w", err)
	}
	no := u.Query().Get("booking_no")
	if no == "" {
		return "", fmt.Errorf("入住码缺少预订号")
	}
	return no, nil
}

// CheckInPNG 生成预订入住二维码图片
func (g *Generator) CheckInPNG(bookingNo string) ([]byte, error) {
	return g.GeneratePNG(CheckInContent(bookingNo))
}
