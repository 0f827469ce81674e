package consts

// 查询队列键，完整键名为 <queue.prefix><后缀>
const (
	QueuePendingKey    = ":pending"
	QueueProcessingKey = ":processing"
	QueueResultKey     = ":result:"
)
