package kafka

import "time"

const (
	TopicMutationRequest = "payments.mutation.req"
	TopicReplyPrefix     = "payments.mutation.reply."
	TopicDLQSuffix       = ".dlq"

	RequestTimeout = 3 * time.Second

	ErrorHeaderKey = "x-error"
)
