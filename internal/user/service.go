package user

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/telmaril/userapi/internal/user/entity"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Repository is the store interface the service depends on. The Mongo
// implementation lives in internal/user/repo; absence is signalled with
// mongo.ErrNoDocuments and email collisions with a duplicate-key error.
type Repository interface {
	List(ctx context.Context) ([]entity.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Insert(ctx context.Context, u *entity.User) (primitive.ObjectID, error)
	Replace(ctx context.Context, id primitive.ObjectID, u *entity.User) (*entity.User, error)
	Patch(ctx context.Context, id primitive.ObjectID, fields bson.M) (*entity.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	BumpTokenVersion(ctx context.Context, id primitive.ObjectID) (int64, error)
}

var (
	ErrNotFound       = errors.New("user not found")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrEmailTaken     = errors.New("email already registered")
)

// Service orchestrates user lifecycle and credential flows.
type Service struct {
	repo   Repository
	hasher PasswordHasher
}

func NewService(repo Repository, hasher PasswordHasher) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &Service{repo: repo, hasher: hasher}
}

// mapStoreErr translates driver-level errors into the service taxonomy.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrEmailTaken
	default:
		return err
	}
}

// Fields carries the client-supplied user fields for create and replace.
// Password is optional; when present it is hashed before it reaches the store.
type Fields struct {
	Name     string
	Age      int
	Email    string
	Password string
}

func (s *Service) List(ctx context.Context) ([]entity.User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return u, nil
}

// Create persists a new user. Password hashing happens here, on the save
// path, never in the handler.
func (s *Service) Create(ctx context.Context, f Fields) (*entity.User, error) {
	u := &entity.User{
		Name:  f.Name,
		Age:   f.Age,
		Email: normalizeEmail(f.Email),
	}
	if f.Password != "" {
		hash, err := s.hasher.Hash(f.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if _, err := s.repo.Insert(ctx, u); err != nil {
		return nil, mapStoreErr(err)
	}
	return u, nil
}

// Replace overwrites all client-visible fields of an existing user. An
// omitted password clears the stored hash.
func (s *Service) Replace(ctx context.Context, id primitive.ObjectID, f Fields) (*entity.User, error) {
	u := &entity.User{
		Name:  f.Name,
		Age:   f.Age,
		Email: normalizeEmail(f.Email),
	}
	if f.Password != "" {
		hash, err := s.hasher.Hash(f.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	out, err := s.repo.Replace(ctx, id, u)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return out, nil
}

// PatchFields carries the optional fields of a partial update; nil means
// "leave untouched".
type PatchFields struct {
	Name     *string
	Age      *int
	Email    *string
	Password *string
}

func (s *Service) Patch(ctx context.Context, id primitive.ObjectID, p PatchFields) (*entity.User, error) {
	fields := bson.M{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Age != nil {
		fields["age"] = *p.Age
	}
	if p.Email != nil {
		fields["email"] = normalizeEmail(*p.Email)
	}
	if p.Password != nil {
		hash, err := s.hasher.Hash(*p.Password)
		if err != nil {
			return nil, err
		}
		fields["password"] = hash
	}
	out, err := s.repo.Patch(ctx, id, fields)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return mapStoreErr(s.repo.Delete(ctx, id))
}

// Register creates an account with tokenVersion 0. Email uniqueness is left
// to the store's unique index; a duplicate surfaces as ErrEmailTaken.
func (s *Service) Register(ctx context.Context, f Fields) (primitive.ObjectID, error) {
	hash, err := s.hasher.Hash(f.Password)
	if err != nil {
		return primitive.NilObjectID, err
	}
	u := &entity.User{
		Name:         f.Name,
		Age:          f.Age,
		Email:        normalizeEmail(f.Email),
		PasswordHash: hash,
	}
	id, err := s.repo.Insert(ctx, u)
	if err != nil {
		return primitive.NilObjectID, mapStoreErr(err)
	}
	return id, nil
}

// AuthenticatePassword verifies email+password and returns the matching user.
// Both an unknown email and a wrong password map to ErrBadCredentials to
// avoid user enumeration.
func (s *Service) AuthenticatePassword(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if u.PasswordHash == "" || !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// BumpTokenVersion increments the revocation counter, invalidating tokens
// minted with an older snapshot.
func (s *Service) BumpTokenVersion(ctx context.Context, id primitive.ObjectID) (int64, error) {
	v, err := s.repo.BumpTokenVersion(ctx, id)
	if err != nil {
		return 0, mapStoreErr(err)
	}
	return v, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
