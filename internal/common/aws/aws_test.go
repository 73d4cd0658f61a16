package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"equimarket/internal/models"
)

type MockSESService struct {
	mock.Mock
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

type MockSNSService struct {
	mock.Mock
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

func TestSESClient_Send(t *testing.T) {
	api := new(MockSESService)
	api.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return aws.ToString(in.Source) == "noreply@equimarket.test" &&
			in.Destination.ToAddresses[0] == "rider@example.com" &&
			aws.ToString(in.Message.Subject.Data) == "Listed" &&
			in.Message.Body.Html == nil
	})).Return(&ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil)

	client := NewSESClientWith(api, "noreply@equimarket.test")
	id, err := client.Send(context.Background(), models.EmailMessage{
		To:      []string{"rider@example.com"},
		Subject: "Listed",
		Body:    "Your listing is live",
	})

	require.NoError(t, err)
	assert.Equal(t, "m-1", id)
	api.AssertExpectations(t)
}

func TestSESClient_SendErrors(t *testing.T) {
	api := new(MockSESService)
	api.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))
	client := NewSESClientWith(api, "noreply@equimarket.test")

	_, err := client.Send(context.Background(), models.EmailMessage{})
	assert.ErrorContains(t, err, "no recipients")

	_, err = client.Send(context.Background(), models.EmailMessage{To: []string{"a@b.c"}})
	assert.ErrorContains(t, err, "throttled")
}

func TestSNSClient_PublishEvent(t *testing.T) {
	api := new(MockSNSService)
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		attr := in.MessageAttributes["eventType"]
		return aws.ToString(in.TopicArn) == "arn:aws:sns:us-east-1:1:listings" &&
			aws.ToString(in.Message) == `{"entity":"book"}` &&
			aws.ToString(attr.StringValue) == "listing.created"
	})).Return(&sns.PublishOutput{MessageId: aws.String("sns-1")}, nil)

	client := NewSNSClientWith(api, "arn:aws:sns:us-east-1:1:listings")
	id, err := client.PublishEvent(context.Background(), "listing.created", map[string]string{"entity": "book"})

	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	api.AssertExpectations(t)
}
