package rabbitmq

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetTransactionQueues возвращает очереди для событий транзакций.
func GetTransactionQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "transaction.purchased", RoutingKey: "purchased"},
		{QueueName: "transaction.rented", RoutingKey: "rented"},
		{QueueName: "transaction.extended", RoutingKey: "extended"},
	}
}
