package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/medihub/health-portal/internal/core/domain"
)

const usersCollection = "portal_users"

// CredentialRepository is a CredentialStore backed by MongoDB. Passwords are
// stored as bcrypt hashes next to the identity fields.
type CredentialRepository struct {
	coll *mongo.Collection
}

func NewCredentialRepository(db *mongo.Database) *CredentialRepository {
	return &CredentialRepository{coll: db.Collection(usersCollection)}
}

type mongoUser struct {
	ID           string `bson:"_id"`
	Email        string `bson:"email"`
	Name         string `bson:"name"`
	Role         string `bson:"role"`
	Avatar       string `bson:"avatar,omitempty"`
	PasswordHash string `bson:"password_hash"`
	UpdatedAt    int64  `bson:"updated_at"`
}

func (u mongoUser) identity() *domain.Identity {
	return &domain.Identity{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   domain.Role(u.Role),
		Avatar: u.Avatar,
	}
}

// EnsureIndexes creates the unique email index.
func (r *CredentialRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

// Seed upserts every candidate with the bcrypt hash of its role's password.
// Candidates whose role has no password are skipped.
func (r *CredentialRepository) Seed(ctx context.Context, candidates []domain.Identity, passwords map[domain.Role]string) error {
	now := time.Now().UTC().Unix()
	for _, c := range candidates {
		password, ok := passwords[c.Role]
		if !ok {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", c.Email, err)
		}

		doc := mongoUser{
			ID:           c.ID,
			Email:        c.Email,
			Name:         c.Name,
			Role:         string(c.Role),
			Avatar:       c.Avatar,
			PasswordHash: string(hash),
			UpdatedAt:    now,
		}
		_, err = r.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, doc, options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("seed user %s: %w", c.Email, err)
		}
	}
	return nil
}

func (r *CredentialRepository) Lookup(ctx context.Context, email string) (*domain.Identity, error) {
	mu, err := r.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return mu.identity(), nil
}

func (r *CredentialRepository) Verify(ctx context.Context, candidate *domain.Identity, password string) (bool, error) {
	if candidate == nil {
		return false, nil
	}
	mu, err := r.findByEmail(ctx, candidate.Email)
	if errors.Is(err, domain.ErrIdentityNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	// The stored record must still describe the same principal.
	if mu.ID != candidate.ID || domain.Role(mu.Role) != candidate.Role {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(mu.PasswordHash), []byte(password)) == nil, nil
}

// List returns every stored account ordered by id, without password hashes.
func (r *CredentialRepository) List(ctx context.Context) ([]domain.Identity, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	out := make([]domain.Identity, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.identity())
	}
	return out, nil
}

func (r *CredentialRepository) findByEmail(ctx context.Context, email string) (*mongoUser, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &mu, nil
}
