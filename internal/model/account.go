package model

// Account portal login (accounts)
// An empty PasswordHash means the password is unusable (graduate accounts
// authenticate with identity key + email). Email is unique when set; imported
// logins carry none.
type Account struct {
	UUIDModel
	Username     string `gorm:"type:varchar(150);not null;unique" json:"username"`
	Email        string `gorm:"type:varchar(255);not null;index;uniqueIndex:uq_accounts_email,where:email <> ''" json:"email"`
	FirstName    string `gorm:"type:varchar(150)"                 json:"first_name"`
	LastName     string `gorm:"type:varchar(150)"                 json:"last_name"`
	PasswordHash string `gorm:"type:varchar(255)"                 json:"-"`
	BaseModel

	Groups []Group `gorm:"many2many:account_groups;" json:"groups,omitempty"`
}

// TableName table name
func (Account) TableName() string { return "accounts" }

// HasUsablePassword reports whether password login is possible
func (a *Account) HasUsablePassword() bool { return a.PasswordHash != "" }

// InGroup reports membership in the named group (Groups must be preloaded)
func (a *Account) InGroup(name string) bool {
	for _, g := range a.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

// Group role group (auth_groups)
type Group struct {
	ID   uint   `gorm:"primaryKey"                       json:"id"`
	Name string `gorm:"type:varchar(150);not null;unique" json:"name"`
}

// TableName table name
func (Group) TableName() string { return "auth_groups" }

// Token roles
const (
	RoleStaff    = "staff"
	RoleGraduate = "graduate"
)
