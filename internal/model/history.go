package model

import (
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// ClassificationHistory is one stored classification run owned by a user.
type ClassificationHistory struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"not null;index"`
	ModelName   string         `json:"model_name" gorm:"size:255;index"`
	ModelType   string         `json:"model_type" gorm:"size:50;index"`
	Status      string         `json:"status" gorm:"size:50;index"`
	IssueURL    string         `json:"issue_url,omitempty" gorm:"size:512"`
	IssueTitle  string         `json:"issue_title,omitempty" gorm:"size:512"`
	IssueNumber string         `json:"issue_number,omitempty" gorm:"size:50"`
	Timestamp   time.Time      `json:"timestamp" gorm:"not null;index"`
	ResultsJSON datatypes.JSON `json:"results_json"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the table name singular.
func (ClassificationHistory) TableName() string {
	return "classification_history"
}

// HistorySummary identifies a history row without its payload.
type HistorySummary struct {
	ID        uint      `json:"id"`
	ModelName string    `json:"model_name"`
	ModelType string    `json:"model_type"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary returns the identifying fields of the row.
func (h *ClassificationHistory) Summary() HistorySummary {
	return HistorySummary{
		ID:        h.ID,
		ModelName: h.ModelName,
		ModelType: h.ModelType,
		Status:    h.Status,
		Timestamp: h.Timestamp,
	}
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
