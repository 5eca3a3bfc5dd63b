// Package storage persists contacts in DynamoDB and archives run reports in
// S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ignite/campus-outreach/internal/contacts"
	"github.com/ignite/campus-outreach/internal/domain"
	"github.com/ignite/campus-outreach/internal/pkg/logger"
)

// DynamoAPI is the subset of the DynamoDB client used by ContactStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// ContactStore implements contacts.Store on a table keyed by "id".
type ContactStore struct {
	db    DynamoAPI
	table string
	log   *logger.Logger
}

var _ contacts.Store = (*ContactStore)(nil)

// NewContactStore wraps an existing client.
func NewContactStore(db DynamoAPI, table string) *ContactStore {
	return &ContactStore{db: db, table: table, log: logger.Default()}
}

// WithLogger sets the logger used to report skipped items.
func (s *ContactStore) WithLogger(l *logger.Logger) *ContactStore {
	if l != nil {
		s.log = l
	}
	return s
}

// contactItem is the stored attribute layout.
type contactItem struct {
	ID           string     `dynamodbav:"id"`
	URL          string     `dynamodbav:"url"`
	Title        string     `dynamodbav:"title"`
	ContactEmail string     `dynamodbav:"contact_email"`
	Source       string     `dynamodbav:"source"`
	Category     string     `dynamodbav:"category,omitempty"`
	Segment      string     `dynamodbav:"segment,omitempty"`
	ScrapedAt    *Timestamp `dynamodbav:"scraped_at,omitempty"`

	SequenceStep      Step       `dynamodbav:"sequence_step"`
	FirstEmailSentAt  *Timestamp `dynamodbav:"first_email_sent_at,omitempty"`
	LastEmailSentAt   *Timestamp `dynamodbav:"last_email_sent_at,omitempty"`
	LastEmailSubject  string     `dynamodbav:"last_email_subject,omitempty"`
	LastEmailBody     string     `dynamodbav:"last_email_body,omitempty"`
	SequenceCompleted bool       `dynamodbav:"sequence_completed,omitempty"`

	DoNotContact   bool       `dynamodbav:"do_not_contact,omitempty"`
	StopSequence   bool       `dynamodbav:"stop_sequence,omitempty"`
	BounceDetected bool       `dynamodbav:"bounce_detected,omitempty"`
	Abandoned      bool       `dynamodbav:"abandoned,omitempty"`
	AbandonedAt    *Timestamp `dynamodbav:"abandoned_at,omitempty"`

	ManuallyReplied   bool       `dynamodbav:"manually_replied,omitempty"`
	ManuallyRepliedAt *Timestamp `dynamodbav:"manually_replied_at,omitempty"`
}

func toItem(c *domain.Contact) contactItem {
	it := contactItem{
		ID:                c.ID,
		URL:               c.URL,
		Title:             c.Title,
		ContactEmail:      c.ContactEmail,
		Source:            c.Source,
		Category:          c.Category,
		Segment:           c.Segment,
		SequenceStep:      Step(c.SequenceStep),
		FirstEmailSentAt:  NewTimestamp(c.FirstEmailSentAt),
		LastEmailSentAt:   NewTimestamp(c.LastEmailSentAt),
		LastEmailSubject:  c.LastEmailSubject,
		LastEmailBody:     c.LastEmailBody,
		SequenceCompleted: c.SequenceCompleted,
		DoNotContact:      c.DoNotContact,
		StopSequence:      c.StopSequence,
		BounceDetected:    c.BounceDetected,
		Abandoned:         c.Abandoned,
		AbandonedAt:       NewTimestamp(c.AbandonedAt),
		ManuallyReplied:   c.ManuallyReplied,
		ManuallyRepliedAt: NewTimestamp(c.ManuallyRepliedAt),
	}
	if !c.ScrapedAt.IsZero() {
		it.ScrapedAt = &Timestamp{Time: c.ScrapedAt}
	}
	return it
}

func (it contactItem) contact() domain.Contact {
	c := domain.Contact{
		ID:                it.ID,
		URL:               it.URL,
		Title:             it.Title,
		ContactEmail:      it.ContactEmail,
		Source:            it.Source,
		Category:          it.Category,
		Segment:           it.Segment,
		SequenceStep:      int(it.SequenceStep),
		FirstEmailSentAt:  it.FirstEmailSentAt.Ptr(),
		LastEmailSentAt:   it.LastEmailSentAt.Ptr(),
		LastEmailSubject:  it.LastEmailSubject,
		LastEmailBody:     it.LastEmailBody,
		SequenceCompleted: it.SequenceCompleted,
		DoNotContact:      it.DoNotContact,
		StopSequence:      it.StopSequence,
		BounceDetected:    it.BounceDetected,
		Abandoned:         it.Abandoned,
		AbandonedAt:       it.AbandonedAt.Ptr(),
		ManuallyReplied:   it.ManuallyReplied,
		ManuallyRepliedAt: it.ManuallyRepliedAt.Ptr(),
	}
	if p := it.ScrapedAt.Ptr(); p != nil {
		c.ScrapedAt = *p
	}
	return c
}

func keyOf(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

// Lookup reads only the key attribute.
func (s *ContactStore) Lookup(ctx context.Context, id string) (contacts.Existence, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.table),
		Key:                  keyOf(id),
		ProjectionExpression: aws.String("id"),
	})
	if err != nil {
		return contacts.Unknown, fmt.Errorf("checking contact %s in DynamoDB: %w", id, err)
	}
	if len(out.Item) == 0 {
		return contacts.Absent, nil
	}
	return contacts.Present, nil
}

func (s *ContactStore) Get(ctx context.Context, id string) (*domain.Contact, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       keyOf(id),
	})
	if err != nil {
		return nil, fmt.Errorf("getting contact from DynamoDB: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, contacts.ErrNotFound
	}

	var it contactItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshaling contact: %w", err)
	}
	c := it.contact()
	return &c, nil
}

// Create writes c unless an item with the same id exists.
func (s *ContactStore) Create(ctx context.Context, c *domain.Contact) error {
	av, err := attributevalue.MarshalMap(toItem(c))
	if err != nil {
		return fmt.Errorf("marshaling contact: %w", err)
	}

	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return contacts.ErrAlreadyExists
		}
		return fmt.Errorf("putting contact to DynamoDB: %w", err)
	}
	return nil
}

// Update applies ch as one UpdateItem call. The first-send timestamp uses
// if_not_exists so it is never overwritten. When ch.IfStep is set the write
// is conditional on the stored step; a missing step attribute counts as 0.
func (s *ContactStore) Update(ctx context.Context, id string, ch contacts.Changes) error {
	expr, err := buildUpdate(ch)
	if err != nil {
		return err
	}

	_, err = s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(s.table),
		Key:                                 keyOf(id),
		UpdateExpression:                    aws.String(expr.update),
		ConditionExpression:                 aws.String(expr.condition),
		ExpressionAttributeValues:           expr.values,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if len(ccf.Item) == 0 {
				return contacts.ErrNotFound
			}
			return contacts.ErrConflict
		}
		return fmt.Errorf("updating contact %s in DynamoDB: %w", id, err)
	}
	return nil
}

type updateExpr struct {
	update    string
	condition string
	values    map[string]types.AttributeValue
}

func buildUpdate(ch contacts.Changes) (updateExpr, error) {
	if ch.Empty() {
		return updateExpr{}, errors.New("storage: empty contact update")
	}

	var parts []string
	values := map[string]types.AttributeValue{}
	set := func(attr, name string, v types.AttributeValue) {
		parts = append(parts, attr+" = "+name)
		values[name] = v
	}
	num := func(n int64) types.AttributeValue {
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
	}

	if ch.SequenceStep != nil {
		set("sequence_step", ":step", num(int64(*ch.SequenceStep)))
	}
	if ch.LastEmailSentAt != nil {
		set("last_email_sent_at", ":last", num(ch.LastEmailSentAt.Unix()))
	}
	if ch.FirstEmailSentAt != nil {
		parts = append(parts, "first_email_sent_at = if_not_exists(first_email_sent_at, :first)")
		values[":first"] = num(ch.FirstEmailSentAt.Unix())
	}
	if ch.LastEmailSubject != nil {
		set("last_email_subject", ":subj", &types.AttributeValueMemberS{Value: *ch.LastEmailSubject})
	}
	if ch.LastEmailBody != nil {
		set("last_email_body", ":body", &types.AttributeValueMemberS{Value: *ch.LastEmailBody})
	}
	if ch.SequenceCompleted != nil {
		set("sequence_completed", ":completed", &types.AttributeValueMemberBOOL{Value: *ch.SequenceCompleted})
	}
	if ch.Abandoned != nil {
		set("abandoned", ":abandoned", &types.AttributeValueMemberBOOL{Value: *ch.Abandoned})
	}
	if ch.AbandonedAt != nil {
		set("abandoned_at", ":abandoned_at", num(ch.AbandonedAt.Unix()))
	}

	cond := "attribute_exists(id)"
	if ch.IfStep != nil {
		// Steps written by hand may be strings; Scan reads both forms.
		values[":expected"] = num(int64(*ch.IfStep))
		values[":expected_s"] = &types.AttributeValueMemberS{Value: strconv.Itoa(*ch.IfStep)}
		match := "sequence_step = :expected OR sequence_step = :expected_s"
		if *ch.IfStep == 0 {
			match = "attribute_not_exists(sequence_step) OR " + match
		}
		cond += " AND (" + match + ")"
	}

	return updateExpr{
		update:    "SET " + strings.Join(parts, ", "),
		condition: cond,
		values:    values,
	}, nil
}

// Scan reads the whole table, following LastEvaluatedKey. Items that fail to
// decode are logged and skipped.
func (s *ContactStore) Scan(ctx context.Context) ([]domain.Contact, error) {
	var (
		out   []domain.Contact
		start map[string]types.AttributeValue
	)
	for {
		page, err := s.db.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("scanning contacts in DynamoDB: %w", err)
		}
		for _, raw := range page.Items {
			var it contactItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				var id string
				if v, ok := raw["id"].(*types.AttributeValueMemberS); ok {
					id = v.Value
				}
				s.log.Warn("skipping undecodable contact", "table", s.table, "id", id, "error", err)
				continue
			}
			out = append(out, it.contact())
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		start = page.LastEvaluatedKey
	}
}
