package dto

import "github.com/goccy/go-json"

// Response HTTP 统一返回封装
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Frame Websocket 双向帧格式
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// InboundFrame 入站帧，Data 由各事件处理器再解析
type InboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
