package configs

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config 主配置结构
type Config struct {
	Server struct {
		IP   string `yaml:"ip"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		LogFormat string `yaml:"log_format"`
		LogLevel  string `yaml:"log_level"`
		LogDir    string `yaml:"log_dir"`
		LogFile   string `yaml:"log_file"`
	} `yaml:"log"`

	SelectedModule map[string]string `yaml:"selected_module"`

	Vision map[string]VisionConfig `yaml:"Vision"`

	Mail MailConfig `yaml:"mail"`
}

// SecurityConfig 图片安全配置结构
type SecurityConfig struct {
	Enabled        bool     `yaml:"enabled"`         // 是否启用图片安全验证
	MaxFileSize    int64    `yaml:"max_file_size"`   // 最大文件大小（字节）
	MaxPixels      int64    `yaml:"max_pixels"`      // 最大像素数量
	MaxWidth       int      `yaml:"max_width"`       // 最大宽度
	MaxHeight      int      `yaml:"max_height"`      // 最大高度
	AllowedFormats []string `yaml:"allowed_formats"` // 允许的图片格式
}

// VisionConfig 视觉分析模型配置结构
type VisionConfig struct {
	Type      string         `yaml:"type"`       // API类型，例如 openrouter
	ModelName string         `yaml:"model_name"` // 支持视觉的模型名称
	BaseURL   string         `yaml:"url"`        // API地址
	APIKey    string         `yaml:"api_key"`    // API密钥
	MaxTokens int            `yaml:"max_tokens"` // 最大令牌数
	Referer   string         `yaml:"referer"`    // HTTP-Referer 识别头
	Title     string         `yaml:"title"`      // X-Title 识别头
	Security  SecurityConfig `yaml:"security"`   // 图片安全配置
}

// MailConfig 邮件投递配置结构
type MailConfig struct {
	Sender     string `yaml:"sender"`      // 发件人地址，同时作为登录用户名
	Password   string `yaml:"password"`    // SMTP密码，为空时尝试匿名投递
	SMTPServer string `yaml:"smtp_server"` // SMTP服务器地址
	SMTPPort   int    `yaml:"smtp_port"`   // SMTP端口，默认587
}

// LoadConfig 从文件加载配置，环境变量中的密钥覆盖文件配置
func LoadConfig() (*Config, string, error) {
	path := ".config.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, err
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, path, err
	}

	config.applyEnvOverrides()
	config.applyDefaults()

	return config, path, nil
}

// applyEnvOverrides 密钥类配置允许通过环境变量注入，避免写进配置文件
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPEN_ROUTER_API_KEY"); key != "" {
		for name, vc := range c.Vision {
			if vc.APIKey == "" {
				vc.APIKey = key
				c.Vision[name] = vc
			}
		}
	}
	if v := os.Getenv("EMAIL_SENDER"); v != "" {
		c.Mail.Sender = v
	}
	if v := os.Getenv("EMAIL_PASSWORD"); v != "" {
		c.Mail.Password = v
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		c.Mail.SMTPServer = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Mail.SMTPPort = port
		}
	}
}

// applyDefaults 补齐缺省配置
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Mail.SMTPPort == 0 {
		c.Mail.SMTPPort = 587
	}
}
