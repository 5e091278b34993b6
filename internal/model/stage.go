package model

// Stage one ordered step of the titling process (stages)
type Stage struct {
	ID          uint    `gorm:"primaryKey"                         json:"id"`
	Order       int     `gorm:"column:stage_order;not null;unique" json:"order"`
	Name        string  `gorm:"type:varchar(100);not null;unique"  json:"name"`
	Title       *string `gorm:"type:varchar(200)"                  json:"title,omitempty"`
	Description string  `gorm:"type:varchar(500);not null"         json:"description"`
}

// TableName table name
func (Stage) TableName() string { return "stages" }
