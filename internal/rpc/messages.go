package rpc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/models"
	"google.golang.org/protobuf/types/known/structpb"
)

// Credentials is the body of SignUp and SignIn.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is returned by SignUp, SignIn and Refresh.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RefreshRequest is the body of Refresh and SignOut.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type InsertRequest struct {
	Collection string        `json:"collection"`
	Record     models.Record `json:"record"`
}

type UpdateRequest struct {
	Collection string        `json:"collection"`
	ID         string        `json:"id"`
	Patch      models.Record `json:"patch"`
}

type DeleteRequest struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

// RecordReply carries the stored row after Insert or Update.
type RecordReply struct {
	Record models.Record `json:"record"`
}

type QueryReply struct {
	Rows []models.Record `json:"rows"`
}

// ExportReply points at an uploaded archive.
type ExportReply struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Entries   int       `json:"entries"`
	Todos     int       `json:"todos"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Encode converts a message to a Struct through its JSON form.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return s, nil
}

// Decode fills v from s. A nil Struct decodes as an empty message.
func Decode(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
