// Package seed loads the initial catalog: groups, the staff user, fixture
// graduates, document types and stages. Every entry is get-or-create, so
// running it twice is harmless.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"titulacion/internal/model"
	"titulacion/internal/repository"
)

//go:embed seed.yaml
var defaultCatalog []byte

// Catalog seed data
type Catalog struct {
	Groups        []string       `yaml:"groups"`
	Staff         []StaffUser    `yaml:"staff"`
	Graduates     []Graduate     `yaml:"graduates"`
	DocumentTypes []DocumentType `yaml:"document_types"`
	Stages        []Stage        `yaml:"stages"`
}

// StaffUser a password login
type StaffUser struct {
	Username  string   `yaml:"username"`
	Email     string   `yaml:"email"`
	FirstName string   `yaml:"first_name"`
	LastName  string   `yaml:"last_name"`
	Groups    []string `yaml:"groups"`
}

// Graduate fixture graduate without account or stage
type Graduate struct {
	ControlNumber string `yaml:"control_number"`
	CURP          string `yaml:"curp"`
	Name          string `yaml:"name"`
	FirstSurname  string `yaml:"first_surname"`
	SecondSurname string `yaml:"second_surname"`
	Gender        string `yaml:"gender"`
}

// DocumentType document category
type DocumentType struct {
	Key         string `yaml:"key"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Extensions  string `yaml:"extensions"`
}

// Stage workflow step
type Stage struct {
	Order       int    `yaml:"order"`
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Summary how many rows each section created
type Summary struct {
	Groups        int
	Staff         int
	Graduates     int
	DocumentTypes int
	Stages        int
}

// Default returns the embedded catalog
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes a catalog from YAML
func Parse(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("seed: catalog is empty")
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("seed: decode catalog: %w", err)
	}
	return &c, nil
}

// Run writes the catalog in one transaction
func Run(ctx context.Context, repo *repository.Repository, c *Catalog, staffPassword string, logger *zap.Logger) (*Summary, error) {
	sum := &Summary{}
	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		groups := make(map[string]*model.Group, len(c.Groups))
		for _, name := range c.Groups {
			g, err := tx.Group.GetByName(ctx, name)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				g, err = tx.Group.FirstOrCreate(ctx, name)
				sum.Groups++
			}
			if err != nil {
				return fmt.Errorf("group %s: %w", name, err)
			}
			groups[name] = g
		}

		for _, u := range c.Staff {
			created, err := seedStaff(ctx, tx, u, groups, staffPassword)
			if err != nil {
				return fmt.Errorf("staff %s: %w", u.Username, err)
			}
			if created {
				sum.Staff++
				logger.Info("staff user created", zap.String("username", u.Username))
			}
		}

		for _, g := range c.Graduates {
			created, err := seedGraduate(ctx, tx, g)
			if err != nil {
				return fmt.Errorf("graduate %s: %w", g.ControlNumber, err)
			}
			if created {
				sum.Graduates++
			}
		}

		for _, d := range c.DocumentTypes {
			_, err := tx.DocumentType.GetByKey(ctx, d.Key)
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			dt := &model.DocumentType{Key: d.Key, Title: d.Title, AcceptedExtensions: d.Extensions}
			if d.Description != "" {
				desc := d.Description
				dt.Description = &desc
			}
			if err := tx.DocumentType.Create(ctx, dt); err != nil {
				return fmt.Errorf("document type %s: %w", d.Key, err)
			}
			sum.DocumentTypes++
		}

		for _, s := range c.Stages {
			_, err := tx.Stage.GetByName(ctx, s.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			st := &model.Stage{Order: s.Order, Name: s.Name, Description: s.Description}
			if s.Title != "" {
				title := s.Title
				st.Title = &title
			}
			if err := tx.Stage.Create(ctx, st); err != nil {
				return fmt.Errorf("stage %s: %w", s.Name, err)
			}
			sum.Stages++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("seed finished",
		zap.Int("groups", sum.Groups),
		zap.Int("staff", sum.Staff),
		zap.Int("graduates", sum.Graduates),
		zap.Int("document_types", sum.DocumentTypes),
		zap.Int("stages", sum.Stages),
	)
	return sum, nil
}

func seedStaff(ctx context.Context, tx *repository.Repository, u StaffUser, groups map[string]*model.Group, password string) (bool, error) {
	_, err := tx.Account.GetByUsername(ctx, u.Username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if password == "" {
		return false, fmt.Errorf("seed.staff_password is empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	account := &model.Account{
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: string(hash),
	}
	if err := tx.Account.Create(ctx, account); err != nil {
		return false, err
	}
	for _, name := range u.Groups {
		g, ok := groups[name]
		if !ok {
			return false, fmt.Errorf("unknown group %q", name)
		}
		if err := tx.Account.AddGroup(ctx, account, g); err != nil {
			return false, err
		}
	}
	return true, nil
}

func seedGraduate(ctx context.Context, tx *repository.Repository, in Graduate) (bool, error) {
	_, err := tx.Graduate.GetByControlNumber(ctx, in.ControlNumber)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	g := &model.Graduate{
		IdentityKey:   in.CURP,
		ControlNumber: in.ControlNumber,
		Name:          in.Name,
		Surname1:      in.FirstSurname,
		Gender:        in.Gender,
	}
	if in.SecondSurname != "" {
		s2 := in.SecondSurname
		g.Surname2 = &s2
	}
	return true, tx.Graduate.Create(ctx, g)
}
