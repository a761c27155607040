package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ishmeet5ingh/tracking-backend/internal/core/domain"
)

const collectionUsers = "users"

// UserRepository implements ports.UserRepository and ports.LocationRepository
// on a single users collection.
type UserRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewUserRepository(db *mongo.Database, timeout time.Duration) *UserRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &UserRepository{col: db.Collection(collectionUsers), timeout: timeout}
}

type mongoUser struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Username          string             `bson:"username"`
	Email             string             `bson:"email"`
	PasswordHash      string             `bson:"password"`
	LastKnownLocation domain.GeoPoint    `bson:"lastKnownLocation"`
	IsBeingTracked    bool               `bson:"isBeingTracked"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

func (m *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:                m.ID.Hex(),
		Username:          m.Username,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		LastKnownLocation: m.LastKnownLocation,
		IsBeingTracked:    m.IsBeingTracked,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

// Create inserts a new user document. Uniqueness is enforced by the indexes
// created in EnsureIndexes.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	loc := user.LastKnownLocation
	if loc.Type == "" {
		loc = domain.DefaultPoint()
	}
	doc := mongoUser{
		ID:                primitive.NewObjectID(),
		Username:          user.Username,
		Email:             user.Email,
		PasswordHash:      user.PasswordHash,
		LastKnownLocation: loc,
		IsBeingTracked:    user.IsBeingTracked,
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByID returns domain.ErrUserNotFound for ids that are not valid ObjectIDs.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var mu mongoUser
	if err := r.col.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

// SetLocation stores coords as the user's last known location and flags the
// user as tracked in a single atomic update.
func (r *UserRepository) SetLocation(ctx context.Context, userID string, coords domain.Coordinates) (*domain.LocationRecord, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"lastKnownLocation": coords.Point(),
		"isBeingTracked":    true,
		"updatedAt":         time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"username": 1, "lastKnownLocation": 1, "isBeingTracked": 1})

	var mu mongoUser
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("set location: %w", err)
	}

	return &domain.LocationRecord{
		UserID:            mu.ID.Hex(),
		Username:          mu.Username,
		LastKnownLocation: mu.LastKnownLocation,
		IsBeingTracked:    mu.IsBeingTracked,
	}, nil
}

// StopTracking clears the tracked flag and leaves the stored point untouched.
func (r *UserRepository) StopTracking(ctx context.Context, userID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"isBeingTracked": false,
		"updatedAt":      time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("stop tracking: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ListTracked returns all users currently sharing their location. No sort is
// applied.
func (r *UserRepository) ListTracked(ctx context.Context) ([]domain.TrackedUser, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"username": 1, "lastKnownLocation": 1})
	cur, err := r.col.Find(ctx, bson.M{"isBeingTracked": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("list tracked: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]domain.TrackedUser, 0)
	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, fmt.Errorf("decode tracked user: %w", err)
		}
		out = append(out, domain.TrackedUser{
			ID:                mu.ID.Hex(),
			Username:          mu.Username,
			LastKnownLocation: mu.LastKnownLocation,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list tracked: %w", err)
	}
	return out, nil
}

// EnsureIndexes creates the uniqueness and lookup indexes on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_unique")},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "isBeingTracked", Value: 1}}},
		{Keys: bson.D{{Key: "lastKnownLocation", Value: "2dsphere"}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
