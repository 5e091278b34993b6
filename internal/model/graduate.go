package model

import "strings"

// Gender values
const (
	GenderMale   = "M"
	GenderFemale = "F"
)

// Graduation periods
const (
	PeriodJanuaryJune    = "1"
	PeriodAugustDecember = "2"
)

// Graduate a person progressing through the titling workflow (graduates)
// IdentityKey (CURP) is the primary key.
type Graduate struct {
	IdentityKey      string  `gorm:"column:curp;type:varchar(18);primaryKey"          json:"curp"`
	ControlNumber    string  `gorm:"type:varchar(20);not null;unique"                 json:"control_number"`
	Name             string  `gorm:"type:varchar(100);not null"                       json:"name"`
	Surname1         string  `gorm:"column:first_surname;type:varchar(100);not null"  json:"first_surname"`
	Surname2         *string `gorm:"column:second_surname;type:varchar(100)"          json:"second_surname,omitempty"`
	Gender           string  `gorm:"type:varchar(1);not null"                         json:"gender"`
	GraduationYear   *int    `json:"graduation_year,omitempty"`
	GraduationPeriod *string `gorm:"type:varchar(1)"                                  json:"graduation_period,omitempty"`
	PlanGroupID      *uint   `json:"plan_group_id,omitempty"`
	TitlingOptionID  *uint   `json:"titling_option_id,omitempty"`
	StageID          *uint   `json:"stage_id,omitempty"`
	AccountID        *string `gorm:"type:varchar(36);unique"                          json:"account_id,omitempty"`
	BaseModel

	Stage         *Stage         `gorm:"foreignKey:StageID;constraint:OnDelete:SET NULL"         json:"stage,omitempty"`
	Account       *Account       `gorm:"foreignKey:AccountID;constraint:OnDelete:SET NULL"       json:"-"`
	PlanGroup     *PlanGroup     `gorm:"foreignKey:PlanGroupID;constraint:OnDelete:SET NULL"     json:"plan_group,omitempty"`
	TitlingOption *TitlingOption `gorm:"foreignKey:TitlingOptionID;constraint:OnDelete:SET NULL" json:"titling_option,omitempty"`
}

// TableName table name
func (Graduate) TableName() string { return "graduates" }

// FullName name followed by both surnames
func (g *Graduate) FullName() string {
	s2 := ""
	if g.Surname2 != nil {
		s2 = *g.Surname2
	}
	return strings.TrimSpace(strings.Join([]string{g.Name, g.Surname1, s2}, " "))
}

// HasAccount reports whether the graduate has a portal login
func (g *Graduate) HasAccount() bool { return g.AccountID != nil && *g.AccountID != "" }
