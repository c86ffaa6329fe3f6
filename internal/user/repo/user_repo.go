package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/telmaril/userapi/internal/user/entity"
)

// UserRepo provides data access for the users collection.
type UserRepo struct {
	col *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{col: db.Collection("users")}
}

// EnsureIndexes creates the unique email index (idempotent). The index is the
// sole authority on email uniqueness: inserts and updates hitting a duplicate
// fail with a duplicate-key error instead of racing a prior lookup.
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *UserRepo) List(ctx context.Context) ([]entity.User, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	users := []entity.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByID fetches a user document or mongo.ErrNoDocuments.
func (r *UserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error) {
	var u entity.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail fetches a user document by email or mongo.ErrNoDocuments.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Insert stores a new user document and returns the store-assigned id.
func (r *UserRepo) Insert(ctx context.Context, u *entity.User) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	u.ID = id
	return id, nil
}

// Replace overwrites the client-visible fields of a document. An empty
// PasswordHash clears the stored hash; tokenVersion and createdAt are
// carried forward so a PUT cannot resurrect revoked tokens.
func (r *UserRepo) Replace(ctx context.Context, id primitive.ObjectID, u *entity.User) (*entity.User, error) {
	set := bson.M{
		"name":      u.Name,
		"age":       u.Age,
		"email":     u.Email,
		"updatedAt": time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if u.PasswordHash != "" {
		set["password"] = u.PasswordHash
	} else {
		update["$unset"] = bson.M{"password": ""}
	}
	return r.findOneAndUpdate(ctx, id, update)
}

// Patch merges only the supplied fields into the document.
func (r *UserRepo) Patch(ctx context.Context, id primitive.ObjectID, fields bson.M) (*entity.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *UserRepo) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*entity.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u entity.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes a document; returns mongo.ErrNoDocuments when absent.
func (r *UserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// BumpTokenVersion atomically increments the revocation counter by one and
// returns the new value.
func (r *UserRepo) BumpTokenVersion(ctx context.Context, id primitive.ObjectID) (int64, error) {
	update := bson.M{
		"$inc": bson.M{"tokenVersion": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	u, err := r.findOneAndUpdate(ctx, id, update)
	if err != nil {
		return 0, err
	}
	return u.TokenVersion, nil
}
