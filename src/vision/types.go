package vision

// AnalyzeRequest 图片分析请求体
type AnalyzeRequest struct {
	ImageURL     string                 `json:"image_url,omitempty"`     // 图片URL，必须以http(s)://开头
	ImageBase64  string                 `json:"image_base64,omitempty"`  // base64编码的图片数据
	ImageName    string                 `json:"image_name,omitempty"`    // 图片名称，仅用于日志
	FunctionInfo map[string]interface{} `json:"function_info,omitempty"` // 调用方附带的透传信息
}

// ErrorResponse 客户端输入错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

// Macronutrients 三大宏量营养素，字符串值以g结尾
type Macronutrients struct {
	Proteins      string `json:"proteins"`
	Carbohydrates string `json:"carbohydrates"`
	Fats          string `json:"fats"`
}

// FallbackAnalysis 分析失败时的固定占位结果，保证响应包络形状统一
type FallbackAnalysis struct {
	MealName          string         `json:"meal_name"`
	EstimatedCalories int            `json:"estimated_calories"`
	Macronutrients    Macronutrients `json:"macronutrients"`
	Ingredients       []string       `json:"ingredients"`
	HealthAssessment  string         `json:"health_assessment"`
	Source            string         `json:"source"`
}

// FallbackResponse 上游或解析失败时的200响应包络
type FallbackResponse struct {
	Error            string           `json:"error"`
	Message          string           `json:"message"`
	FallbackAnalysis FallbackAnalysis `json:"fallback_analysis"`
}

// 兜底的营养信息来源地址
const fallbackSourceURL = "https://fdc.nal.usda.gov/"

// newFallbackAnalysis 构造零值占位分析结果
func newFallbackAnalysis() FallbackAnalysis {
	return FallbackAnalysis{
		MealName:          "Unknown meal (analysis failed)",
		EstimatedCalories: 0,
		Macronutrients: Macronutrients{
			Proteins:      "0g",
			Carbohydrates: "0g",
			Fats:          "0g",
		},
		Ingredients:      []string{"could not analyze image"},
		HealthAssessment: "Analysis failed. Please try again later.",
		Source:           fallbackSourceURL,
	}
}
