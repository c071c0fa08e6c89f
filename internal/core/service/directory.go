package service

import (
	"context"
	"crypto/subtle"
	"sort"

	"github.com/medihub/health-portal/internal/core/domain"
)

// MockCandidates is the fixed set of portal accounts, one per role.
var MockCandidates = []domain.Identity{
	{
		ID:     "1",
		Email:  "patient@example.com",
		Name:   "John Doe",
		Role:   domain.RolePatient,
		Avatar: "https://randomuser.me/api/portraits/men/1.jpg",
	},
	{
		ID:     "2",
		Email:  "doctor@example.com",
		Name:   "Dr. Sarah Smith",
		Role:   domain.RoleDoctor,
		Avatar: "https://randomuser.me/api/portraits/women/2.jpg",
	},
	{
		ID:     "3",
		Email:  "admin@example.com",
		Name:   "Admin User",
		Role:   domain.RoleAdmin,
		Avatar: "https://randomuser.me/api/portraits/men/3.jpg",
	},
}

// MockPasswords maps each role to its single known-good password.
var MockPasswords = map[domain.Role]string{
	domain.RolePatient: "Patient@123",
	domain.RoleDoctor:  "Doctor@123",
	domain.RoleAdmin:   "Admin@123",
}

// StaticDirectory is an in-process CredentialStore over a fixed table.
type StaticDirectory struct {
	byEmail   map[string]domain.Identity
	passwords map[domain.Role]string
}

// NewStaticDirectory builds a directory from candidates and a role-keyed
// password table.
func NewStaticDirectory(candidates []domain.Identity, passwords map[domain.Role]string) *StaticDirectory {
	d := &StaticDirectory{
		byEmail:   make(map[string]domain.Identity, len(candidates)),
		passwords: make(map[domain.Role]string, len(passwords)),
	}
	for _, c := range candidates {
		d.byEmail[c.Email] = c
	}
	for r, p := range passwords {
		d.passwords[r] = p
	}
	return d
}

// NewMockDirectory returns the directory seeded with MockCandidates.
func NewMockDirectory() *StaticDirectory {
	return NewStaticDirectory(MockCandidates, MockPasswords)
}

// List returns every candidate ordered by id.
func (d *StaticDirectory) List(_ context.Context) ([]domain.Identity, error) {
	out := make([]domain.Identity, 0, len(d.byEmail))
	for _, c := range d.byEmail {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *StaticDirectory) Lookup(_ context.Context, email string) (*domain.Identity, error) {
	c, ok := d.byEmail[email]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return &c, nil
}

func (d *StaticDirectory) Verify(_ context.Context, candidate *domain.Identity, password string) (bool, error) {
	if candidate == nil {
		return false, nil
	}
	want, ok := d.passwords[candidate.Role]
	if !ok {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(password)) == 1, nil
}
