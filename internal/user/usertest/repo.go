// Package usertest provides an in-memory Repository implementation for
// handler and gate tests, mirroring the Mongo repo's error semantics.
package usertest

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/telmaril/userapi/internal/user/entity"
)

// Repo is a map-backed stand-in for the users collection. Absence is
// reported with mongo.ErrNoDocuments and email collisions with a
// duplicate-key error, exactly like the driver.
type Repo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]entity.User

	// Err, when set, makes every operation fail with it.
	Err error
	// EmailLookups counts GetByEmail calls; gate tests use it to prove
	// malformed credentials never reach the store.
	EmailLookups int
}

func NewRepo() *Repo {
	return &Repo{users: map[primitive.ObjectID]entity.User{}}
}

func duplicateKeyErr() error {
	return mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}
}

// Seed inserts a user directly, bypassing uniqueness checks.
func (r *Repo) Seed(u entity.User) primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = u
	return u.ID
}

// Get returns a stored user by id for test assertions.
func (r *Repo) Get(id primitive.ObjectID) (entity.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	return u, ok
}

func (r *Repo) List(ctx context.Context) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []entity.User{}
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *Repo) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.EmailLookups++
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *Repo) Insert(ctx context.Context, u *entity.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return primitive.NilObjectID, r.Err
	}
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return primitive.NilObjectID, duplicateKeyErr()
		}
	}
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = *u
	return u.ID, nil
}

func (r *Repo) Replace(ctx context.Context, id primitive.ObjectID, u *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	existing, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	for otherID, other := range r.users {
		if otherID != id && other.Email == u.Email {
			return nil, duplicateKeyErr()
		}
	}
	existing.Name = u.Name
	existing.Age = u.Age
	existing.Email = u.Email
	existing.PasswordHash = u.PasswordHash
	existing.UpdatedAt = time.Now().UTC()
	r.users[id] = existing
	return &existing, nil
}

func (r *Repo) Patch(ctx context.Context, id primitive.ObjectID, fields bson.M) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	existing, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	for k, v := range fields {
		switch k {
		case "name":
			existing.Name = v.(string)
		case "age":
			existing.Age = v.(int)
		case "email":
			email := v.(string)
			for otherID, other := range r.users {
				if otherID != id && other.Email == email {
					return nil, duplicateKeyErr()
				}
			}
			existing.Email = email
		case "password":
			existing.PasswordHash = v.(string)
		}
	}
	existing.UpdatedAt = time.Now().UTC()
	r.users[id] = existing
	return &existing, nil
}

func (r *Repo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.users[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.users, id)
	return nil
}

func (r *Repo) BumpTokenVersion(ctx context.Context, id primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	existing, ok := r.users[id]
	if !ok {
		return 0, mongo.ErrNoDocuments
	}
	existing.TokenVersion++
	existing.UpdatedAt = time.Now().UTC()
	r.users[id] = existing
	return existing.TokenVersion, nil
}
