// Package store provides DynamoDB backed implementations of the intake
// session's persistence collaborators: the draft store targeted by the
// debounced auto-save and the submission store that receives completed
// intakes.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/carelane/intake/libs/clock"
	"github.com/carelane/intake/libs/errors"
	"github.com/carelane/intake/libs/ptr"
)

const (
	draftTableNameFormatString      = "%s_intake_draft"
	submissionTableNameFormatString = "%s_intake_submission"

	// AN represents "Attribute Name"
	sessionIDAN   = "session_id"
	answersAN     = "answers"
	updatedAtAN   = "updated_at"
	entryIDAN     = "entry_id"
	accessTokenAN = "access_token"
	documentAN    = "document"
	submittedAtAN = "submitted_at"
)

// kvs narrows the DynamoDB surface used by the stores so that tests can
// provide a fake.
type kvs interface {
	PutItemWithContext(ctx context.Context, input *dynamodb.PutItemInput, opts ...request.Option) (*dynamodb.PutItemOutput, error)
	GetItemWithContext(ctx context.Context, input *dynamodb.GetItemInput, opts ...request.Option) (*dynamodb.GetItemOutput, error)
}

// DraftStore persists auto-save snapshots of a session's answer map keyed
// by session id. Each save overwrites the previous snapshot.
type DraftStore struct {
	kvs       kvs
	tableName string
	clk       clock.Clock
}

// NewDraftStore returns a draft store writing to the environment's draft
// table.
func NewDraftStore(k kvs, env string, clk clock.Clock) *DraftStore {
	return &DraftStore{
		kvs:       k,
		tableName: fmt.Sprintf(draftTableNameFormatString, env),
		clk:       clk,
	}
}

// SaveDraft stores the serialized answer map for the session.
func (s *DraftStore) SaveDraft(ctx context.Context, sessionID string, answers map[string]interface{}) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return errors.Trace(err)
	}

	_, err = s.kvs.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: ptr.String(s.tableName),
		Item: map[string]*dynamodb.AttributeValue{
			sessionIDAN: {S: ptr.String(sessionID)},
			answersAN:   {S: ptr.String(string(data))},
			updatedAtAN: {N: ptr.String(strconv.FormatInt(s.clk.Now().Unix(), 10))},
		},
	})
	return errors.Trace(err)
}

// Draft returns the last saved answer map for the session, or nil when no
// draft exists.
func (s *DraftStore) Draft(ctx context.Context, sessionID string) (map[string]interface{}, error) {
	res, err := s.kvs.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      ptr.String(s.tableName),
		ConsistentRead: ptr.Bool(true),
		Key: map[string]*dynamodb.AttributeValue{
			sessionIDAN: {S: ptr.String(sessionID)},
		},
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	av, ok := res.Item[answersAN]
	if !ok || av.S == nil {
		return nil, nil
	}

	var answers map[string]interface{}
	if err := json.Unmarshal([]byte(*av.S), &answers); err != nil {
		return nil, errors.Trace(err)
	}
	return answers, nil
}

// SubmissionStore persists completed intakes and implements the session's
// SubmissionClient interface.
type SubmissionStore struct {
	kvs       kvs
	tableName string
	clk       clock.Clock
}

// NewSubmissionStore returns a submission store writing to the
// environment's submission table.
func NewSubmissionStore(k kvs, env string, clk clock.Clock) *SubmissionStore {
	return &SubmissionStore{
		kvs:       k,
		tableName: fmt.Sprintf(submissionTableNameFormatString, env),
		clk:       clk,
	}
}

// Submit stores the answers and the formatted document under a newly
// generated entry id and returns the id.
func (s *SubmissionStore) Submit(ctx context.Context, accessToken string, answers map[string]interface{}, document string) (string, error) {
	data, err := json.Marshal(answers)
	if err != nil {
		return "", errors.Trace(err)
	}

	entryID, err := newEntryID()
	if err != nil {
		return "", errors.Trace(err)
	}

	_, err = s.kvs.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:           ptr.String(s.tableName),
		ConditionExpression: ptr.String("attribute_not_exists(entry_id)"),
		Item: map[string]*dynamodb.AttributeValue{
			entryIDAN:     {S: ptr.String(entryID)},
			accessTokenAN: {S: ptr.String(accessToken)},
			answersAN:     {S: ptr.String(string(data))},
			documentAN:    {S: ptr.String(document)},
			submittedAtAN: {N: ptr.String(strconv.FormatInt(s.clk.Now().Unix(), 10))},
		},
	})
	if err != nil {
		return "", errors.Trace(err)
	}

	return entryID, nil
}

func newEntryID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", errors.Trace(err)
	}
	return hex.EncodeToString(b[:]), nil
}
