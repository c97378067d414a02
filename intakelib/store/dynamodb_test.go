package store

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/carelane/intake/libs/clock"
	"github.com/carelane/intake/libs/errors"
	"github.com/carelane/intake/libs/ptr"
	"github.com/carelane/intake/libs/test"
)

type testKVS struct {
	putInputs []*dynamodb.PutItemInput
	getInput  *dynamodb.GetItemInput
	getOutput *dynamodb.GetItemOutput
	putErr    error
}

func (k *testKVS) PutItemWithContext(ctx context.Context, input *dynamodb.PutItemInput, opts ...request.Option) (*dynamodb.PutItemOutput, error) {
	k.putInputs = append(k.putInputs, input)
	if k.putErr != nil {
		return nil, k.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (k *testKVS) GetItemWithContext(ctx context.Context, input *dynamodb.GetItemInput, opts ...request.Option) (*dynamodb.GetItemOutput, error) {
	k.getInput = input
	if k.getOutput != nil {
		return k.getOutput, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func TestDraftStore_SaveDraft(t *testing.T) {
	kv := &testKVS{}
	clk := clock.NewManaged(time.Unix(1700000000, 0))
	s := NewDraftStore(kv, "staging", clk)

	err := s.SaveDraft(context.Background(), "session1", map[string]interface{}{
		"full_name": "Ada Lovelace",
	})
	test.OK(t, err)

	test.Equals(t, 1, len(kv.putInputs))
	input := kv.putInputs[0]
	test.Equals(t, "staging_intake_draft", *input.TableName)
	test.Equals(t, "session1", *input.Item[sessionIDAN].S)
	test.Equals(t, `{"full_name":"Ada Lovelace"}`, *input.Item[answersAN].S)
	test.Equals(t, "1700000000", *input.Item[updatedAtAN].N)

	// a later save overwrites the snapshot with a fresh timestamp
	clk.WarpForward(90 * time.Second)
	test.OK(t, s.SaveDraft(context.Background(), "session1", map[string]interface{}{
		"full_name": "Ada King",
	}))
	test.Equals(t, 2, len(kv.putInputs))
	test.Equals(t, "1700000090", *kv.putInputs[1].Item[updatedAtAN].N)
}

func TestDraftStore_SaveDraftError(t *testing.T) {
	kv := &testKVS{putErr: errors.New("throughput exceeded")}
	s := NewDraftStore(kv, "staging", clock.New())

	err := s.SaveDraft(context.Background(), "session1", nil)
	test.AssertNotNil(t, err)
}

func TestDraftStore_Draft(t *testing.T) {
	kv := &testKVS{
		getOutput: &dynamodb.GetItemOutput{
			Item: map[string]*dynamodb.AttributeValue{
				answersAN: {S: ptr.String(`{"full_name":"Ada Lovelace","screen_time":6}`)},
			},
		},
	}
	s := NewDraftStore(kv, "staging", clock.New())

	answers, err := s.Draft(context.Background(), "session1")
	test.OK(t, err)
	test.Equals(t, map[string]interface{}{
		"full_name":   "Ada Lovelace",
		"screen_time": float64(6),
	}, answers)

	// drafts are read with strong consistency so a resume right after a
	// save sees the latest snapshot
	test.Equals(t, true, *kv.getInput.ConsistentRead)
	test.Equals(t, "session1", *kv.getInput.Key[sessionIDAN].S)
}

func TestDraftStore_DraftMissing(t *testing.T) {
	s := NewDraftStore(&testKVS{}, "staging", clock.New())

	answers, err := s.Draft(context.Background(), "unknown")
	test.OK(t, err)
	test.Assert(t, answers == nil, "expected no draft for an unknown session")
}

func TestSubmissionStore_Submit(t *testing.T) {
	kv := &testKVS{}
	clk := clock.NewManaged(time.Unix(1700000000, 0))
	s := NewSubmissionStore(kv, "staging", clk)

	entryID, err := s.Submit(context.Background(), "token-abc", map[string]interface{}{
		"has_glasses": "No",
	}, "== Vision ==\nDo you wear glasses?: No\n")
	test.OK(t, err)

	// 16 random bytes hex encoded
	test.Equals(t, 32, len(entryID))

	test.Equals(t, 1, len(kv.putInputs))
	input := kv.putInputs[0]
	test.Equals(t, "staging_intake_submission", *input.TableName)
	test.Equals(t, "attribute_not_exists(entry_id)", *input.ConditionExpression)
	test.Equals(t, entryID, *input.Item[entryIDAN].S)
	test.Equals(t, "token-abc", *input.Item[accessTokenAN].S)
	test.Equals(t, `{"has_glasses":"No"}`, *input.Item[answersAN].S)
	test.Equals(t, "== Vision ==\nDo you wear glasses?: No\n", *input.Item[documentAN].S)
	test.Equals(t, "1700000000", *input.Item[submittedAtAN].N)

	// each submission gets a fresh id
	entryID2, err := s.Submit(context.Background(), "token-abc", nil, "")
	test.OK(t, err)
	test.Assert(t, entryID != entryID2, "expected a unique entry id per submission")
}
