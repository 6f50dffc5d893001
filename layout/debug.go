package layout

import "encoding/json"

// MarshalDebugJSON 将布局结果输出为缩进 JSON，便于调试或可视化。
func MarshalDebugJSON(plan *Plan) ([]byte, error) {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
