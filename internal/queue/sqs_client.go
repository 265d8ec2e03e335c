package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSClient publishes cleanup jobs to one SQS queue.
type SQSClient struct {
	api      sqsSender
	queueURL string
}

func NewSQSClient(cfg aws.Config, queueURL string) (*SQSClient, error) {
	return newSQSClient(sqs.NewFromConfig(cfg), queueURL)
}

func newSQSClient(api sqsSender, queueURL string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, errors.New("queue url is required")
	}
	return &SQSClient{api: api, queueURL: queueURL}, nil
}

// Send publishes msg. Kind and version travel as attributes so consumers
// can filter without decoding the body.
func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	body, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Kind, err)
	}

	_, err = s.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"kind":    stringAttr(msg.Kind),
			"version": {DataType: aws.String("Number"), StringValue: aws.String(strconv.Itoa(msg.Version))},
		},
	})
	if err != nil {
		return fmt.Errorf("send %s to sqs: %w", msg.Kind, err)
	}
	return nil
}

func stringAttr(v string) sqstypes.MessageAttributeValue {
	return sqstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
}

var _ Client = (*SQSClient)(nil)
