package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document 记录一次成功入库的文档元数据。
// 文本本身不落库，分块与向量保存在向量库中，这里只保存可追溯的信息。
type Document struct {
	ID          uint              `gorm:"primaryKey" json:"-"`
	DocumentID  string            `gorm:"uniqueIndex;not null;size:36" json:"document_id"` // 客户端提供或服务端生成的 UUID
	Filename    string            `gorm:"not null;size:255" json:"filename"`
	ContentType string            `gorm:"size:128" json:"content_type"`
	Strategy    string            `gorm:"size:32;not null" json:"chunking_strategy"`
	Options     datatypes.JSONMap `json:"chunk_options"`               // 本次分块使用的参数 (chunk_size, chunk_overlap, min_chunk_size)
	TotalChunks int               `gorm:"not null" json:"total_chunks"` // 分块数量
	CharCount   int               `json:"char_count"`                   // 解析后文本的字符数 (rune)
	FilePath    string            `gorm:"size:512" json:"file_path,omitempty"` // 原始文件在对象存储中的 key，未归档时为空
	CreatedAt   time.Time         `json:"upload_time"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
