package layout

import (
	"encoding/json"
	"io"
	"os"
)

// debugDocument 是调试 JSON 的顶层结构：同时输出 forme 与压印结果，便于对照。
type debugDocument struct {
	Forme   Forme    `json:"forme,omitempty"`
	Pressed *Pressed `json:"pressed"`
}

// WriteDebugJSON 将排版结果输出为 JSON 文件，便于调试或可视化。
func WriteDebugJSON(forme Forme, pressed *Pressed, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDebugJSON(file, forme, pressed); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// EncodeDebugJSON 将排版结果以缩进 JSON 写入 w。
func EncodeDebugJSON(w io.Writer, forme Forme, pressed *Pressed) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(debugDocument{Forme: forme, Pressed: pressed})
}
