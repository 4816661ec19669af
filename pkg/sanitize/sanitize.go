package sanitize

import "regexp"

// 变更请求体的XSS清洗。这是纵深防御的一道兜底，
// 不能替代渲染侧的输出编码。清洗必须幂等。
var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	eventAttrRe   = regexp.MustCompile(`(?i)\bon\w+\s*=\s*("[^"]*"|'[^']*')`)
	javascriptRe  = regexp.MustCompile(`(?i)javascript\s*:`)
)

// String 清洗单个字符串
func String(s string) string {
	s = scriptBlockRe.ReplaceAllString(s, "")
	s = eventAttrRe.ReplaceAllString(s, "")
	s = javascriptRe.ReplaceAllString(s, "")
	return s
}

// Value 递归清洗解码后的JSON值：
// 字符串逐个清洗，数组逐项递归，对象重建浅拷贝并递归清洗每个值，
// 其余类型原样返回。
func Value(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return String(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = Value(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = Value(item)
		}
		return out
	default:
		return v
	}
}
