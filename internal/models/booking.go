package models

import "time"

// BookingStatus 定义了预约的状态。
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed" // 预约已创建
	BookingCancelled BookingStatus = "cancelled" // 预约已取消
)

// Booking 代表一次面试预约。
type Booking struct {
	ID        uint          `gorm:"primaryKey" json:"-"`
	BookingID string        `gorm:"uniqueIndex;not null;size:36" json:"booking_id"`
	Name      string        `gorm:"not null;size:255" json:"name"`
	Email     string        `gorm:"index;not null;size:255" json:"email"`
	Date      string        `gorm:"not null;size:10" json:"date"` // YYYY-MM-DD
	Time      string        `gorm:"not null;size:5" json:"time"`  // HH:MM
	Status    BookingStatus `gorm:"type:varchar(20);default:'confirmed';not null" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}
