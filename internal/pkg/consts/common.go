package consts

// 后台任务生成的 trace_id 前缀
const (
	TracePrefixQueryJob  = "job-query-"
	TracePrefixReaperJob = "job-reaper-"
)
