// ABOUTME: Store interface and data types for research-manager persistence
// ABOUTME: Defines User, Synthesis, Reaction, Result structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when trying to create a user with an existing username.
var ErrUsernameExists = errors.New("username already exists")

// ErrInvalid is returned (wrapped) when an entity fails field validation.
// Nothing is written when a Create method returns it.
var ErrInvalid = errors.New("invalid field")

// User represents a researcher account.
type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}

// Synthesis represents one catalyst synthesis experiment.
// Amount is the synthesized catalyst mass in grams.
type Synthesis struct {
	ID        string
	OwnerID   string
	Date      time.Time // day resolution
	Name      string
	Memo      string
	Amount    float64
	CreatedAt time.Time
}

// Reaction represents a reaction trial run with a previously synthesized catalyst.
// Temperature is in degrees Celsius, CatalystAmount in grams.
type Reaction struct {
	ID             string
	OwnerID        string
	SynthesisID    string
	Date           time.Time // day resolution
	Temperature    float64
	CatalystAmount float64
	Memo           string
	CreatedAt      time.Time
}

// ReactionDetail is a reaction joined with its parent synthesis for listing.
type ReactionDetail struct {
	Reaction
	SynthesisName string
	SynthesisDate time.Time
}

// Result holds the processed outcome for one reaction: the average DoDH over
// the retained samples and the rendered chart. At most one row exists per
// reaction; re-processing replaces the stored values.
type Result struct {
	ID          string
	ReactionID  string
	OwnerID     string
	AverageDoDH float64
	Graph       []byte // PNG
	UpdatedAt   time.Time
}

// Store defines the interface for experiment persistence.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CountUsers(ctx context.Context) (int, error)

	// Synthesis experiments
	CreateSynthesis(ctx context.Context, syn *Synthesis) error
	GetSynthesis(ctx context.Context, id string) (*Synthesis, error)
	ListSyntheses(ctx context.Context, ownerID string) ([]*Synthesis, error)
	DeleteSynthesis(ctx context.Context, id string) error

	// Reaction trials
	CreateReaction(ctx context.Context, rxn *Reaction) error
	GetReaction(ctx context.Context, id string) (*Reaction, error)
	ListReactions(ctx context.Context, ownerID string) ([]*ReactionDetail, error)
	DeleteReaction(ctx context.Context, id string) error

	// Results
	UpsertResult(ctx context.Context, res *Result) error
	GetResult(ctx context.Context, reactionID string) (*Result, error)

	// Close releases any resources held by the store
	Close() error
}
