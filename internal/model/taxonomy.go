package model

// PlanGroup grouping of study plans (plan_groups)
type PlanGroup struct {
	ID          uint    `gorm:"primaryKey"                json:"id"`
	Name        string  `gorm:"type:varchar(50);not null" json:"name"`
	Description *string `gorm:"type:varchar(500)"         json:"description,omitempty"`

	Plans []Plan `gorm:"foreignKey:PlanGroupID;constraint:OnDelete:CASCADE" json:"plans,omitempty"`
}

// TableName table name
func (PlanGroup) TableName() string { return "plan_groups" }

// Plan study plan, belongs to exactly one PlanGroup (plans)
type Plan struct {
	ID          uint    `gorm:"primaryKey"                json:"id"`
	Name        string  `gorm:"type:varchar(50);not null" json:"name"`
	Description *string `gorm:"type:varchar(500)"         json:"description,omitempty"`
	PlanGroupID uint    `gorm:"not null;index"            json:"plan_group_id"`
}

// TableName table name
func (Plan) TableName() string { return "plans" }

// TitlingOption a way to obtain the title (thesis, exam, ...) (titling_options)
type TitlingOption struct {
	ID          uint    `gorm:"primaryKey"                json:"id"`
	Name        string  `gorm:"type:varchar(50);not null" json:"name"`
	Description *string `gorm:"type:varchar(500)"         json:"description,omitempty"`
}

// TableName table name
func (TitlingOption) TableName() string { return "titling_options" }

// All lists every model for AutoMigrate, in dependency order
func All() []interface{} {
	return []interface{}{
		&Stage{},
		&Group{},
		&Account{},
		&PlanGroup{},
		&Plan{},
		&TitlingOption{},
		&Graduate{},
		&DocumentType{},
		&SubmittedDocument{},
	}
}
