package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"calories-tracker-go/src/configs"
	"calories-tracker-go/src/core/utils"

	_ "image/gif"  // 注册GIF解码器
	_ "image/jpeg" // 注册JPEG解码器
	_ "image/png"  // 注册PNG解码器

	_ "golang.org/x/image/webp" // 注册WEBP解码器
)

// Validator 内联图片安全验证器
type Validator struct {
	config *configs.SecurityConfig
	logger *utils.Logger
}

// NewValidator 创建新的图片安全验证器
func NewValidator(config *configs.SecurityConfig, logger *utils.Logger) *Validator {
	return &Validator{
		config: config,
		logger: logger,
	}
}

// 图片格式魔数签名
var imageSignatures = map[string][]byte{
	"jpeg": {0xFF, 0xD8},
	"jpg":  {0xFF, 0xD8},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"webp": {0x52, 0x49, 0x46, 0x46}, // RIFF，需要进一步检查WEBP标识
	"bmp":  {0x42, 0x4D},
}

// ValidateBase64 验证base64编码的内联图片数据
func (v *Validator) ValidateBase64(data string) ValidationResult {
	result := ValidationResult{IsValid: false}

	// 客户端有时带data URI前缀，先剥离
	if idx := strings.Index(data, ";base64,"); idx != -1 && strings.HasPrefix(data, "data:") {
		data = data[idx+len(";base64,"):]
	}

	imageBytes, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		result.Error = fmt.Errorf("base64解码失败: %v", err)
		return result
	}

	return v.validateBytes(imageBytes)
}

// validateBytes 对解码后的图片字节做大小、格式与解码验证
func (v *Validator) validateBytes(data []byte) ValidationResult {
	result := ValidationResult{IsValid: false}

	if v.config.MaxFileSize > 0 && int64(len(data)) > v.config.MaxFileSize {
		result.Error = fmt.Errorf("文件大小超限: %d bytes，最大允许: %d bytes", len(data), v.config.MaxFileSize)
		v.logger.Warn("检测到超大图片", map[string]interface{}{
			"size":     len(data),
			"max_size": v.config.MaxFileSize,
		})
		return result
	}

	detected := DetectFormat(data)
	if detected == "" {
		result.Error = fmt.Errorf("无法识别的图片格式")
		return result
	}
	if !v.isFormatAllowed(detected) {
		result.Error = fmt.Errorf("不支持的格式: %s", detected)
		return result
	}

	// 解码校验是最可靠的验证方式
	config, actualFormat, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		result.Error = fmt.Errorf("图片解码失败: %v", err)
		return result
	}
	if actualFormat != "" {
		detected = actualFormat
	}

	if v.config.MaxWidth > 0 && config.Width > v.config.MaxWidth ||
		v.config.MaxHeight > 0 && config.Height > v.config.MaxHeight {
		result.Error = fmt.Errorf("图片尺寸超限: %dx%d，最大允许: %dx%d",
			config.Width, config.Height, v.config.MaxWidth, v.config.MaxHeight)
		return result
	}

	totalPixels := int64(config.Width) * int64(config.Height)
	if v.config.MaxPixels > 0 && totalPixels > v.config.MaxPixels {
		result.Error = fmt.Errorf("像素总数超限: %d，最大允许: %d", totalPixels, v.config.MaxPixels)
		return result
	}

	result.IsValid = true
	result.Format = detected
	result.Width = config.Width
	result.Height = config.Height
	result.FileSize = int64(len(data))
	return result
}

// isFormatAllowed 检查格式是否被允许，未配置白名单时全部放行
func (v *Validator) isFormatAllowed(format string) bool {
	if len(v.config.AllowedFormats) == 0 {
		return true
	}
	formatLower := strings.ToLower(format)
	for _, allowed := range v.config.AllowedFormats {
		if strings.ToLower(allowed) == formatLower {
			return true
		}
	}
	return false
}

// DetectFormat 根据文件头魔数识别图片格式，识别不出返回空串
func DetectFormat(data []byte) string {
	for _, format := range []string{"png", "jpeg", "gif", "webp", "bmp"} {
		signature := imageSignatures[format]
		if len(data) < len(signature) || !bytes.HasPrefix(data, signature) {
			continue
		}
		// WEBP在RIFF头之后还需要WEBP标识
		if format == "webp" {
			if len(data) < 12 || !bytes.Equal(data[8:12], []byte("WEBP")) {
				continue
			}
		}
		return format
	}
	return ""
}
