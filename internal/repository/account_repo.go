package repository

import (
	"context"

	"gorm.io/gorm"

	"titulacion/internal/model"
)

// GroupRepository role groups
type GroupRepository interface {
	GetByName(ctx context.Context, name string) (*model.Group, error)
	FirstOrCreate(ctx context.Context, name string) (*model.Group, error)
}

type groupRepo struct {
	db *gorm.DB
}

// NewGroupRepo creates a GroupRepository
func NewGroupRepo(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) GetByName(ctx context.Context, name string) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) FirstOrCreate(ctx context.Context, name string) (*model.Group, error) {
	group := model.Group{Name: name}
	if err := r.db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// AccountRepository portal logins
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	AddGroup(ctx context.Context, account *model.Account, group *model.Group) error
	Update(ctx context.Context, account *model.Account) error
	// Delete removes the account and its group memberships
	Delete(ctx context.Context, id string) error
}

type accountRepo struct {
	db *gorm.DB
}

// NewAccountRepo creates an AccountRepository
func NewAccountRepo(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Omit("Groups.*").Create(account).Error
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).
		Preload("Groups").
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).
		Preload("Groups").
		Where("username = ?", username).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Account{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

func (r *accountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Account{}).Where("LOWER(email) = LOWER(?)", email).Count(&n).Error
	return n > 0, err
}

func (r *accountRepo) AddGroup(ctx context.Context, account *model.Account, group *model.Group) error {
	if err := r.db.WithContext(ctx).Model(account).Association("Groups").Append(group); err != nil {
		return err
	}
	return nil
}

func (r *accountRepo) Update(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Omit("Groups").Save(account).Error
}

func (r *accountRepo) Delete(ctx context.Context, id string) error {
	account := model.Account{UUIDModel: model.UUIDModel{ID: id}}
	return r.db.WithContext(ctx).Select("Groups").Delete(&account).Error
}
