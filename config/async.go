package config

import "time"

// AsyncConfig 协程池配置
type AsyncConfig struct {
	PoolSize         int           `json:"poolSize" yaml:"poolSize"`                 // 池容量
	ExpiryDuration   time.Duration `json:"expiryDuration" yaml:"expiryDuration"`     // 空闲 worker 回收周期
	PreAlloc         bool          `json:"preAlloc" yaml:"preAlloc"`                 // 是否预分配内存
	MaxBlockingTasks int           `json:"maxBlockingTasks" yaml:"maxBlockingTasks"` // 阻塞等待队列上限，0 表示不限制
	Nonblocking      bool          `json:"nonblocking" yaml:"nonblocking"`           // 池满时是否直接返回错误
	TaskTimeout      time.Duration `json:"taskTimeout" yaml:"taskTimeout"`           // 单任务默认超时
	ReleaseTimeout   time.Duration `json:"releaseTimeout" yaml:"releaseTimeout"`     // 优雅释放等待时间
}

// DefaultAsyncConfig 默认协程池配置
func DefaultAsyncConfig() AsyncConfig {
	return AsyncConfig{
		PoolSize:         envInt("CHATLY_ASYNC_POOL_SIZE", 1024),
		ExpiryDuration:   10 * time.Second,
		PreAlloc:         false,
		MaxBlockingTasks: 0,
		Nonblocking:      false,
		TaskTimeout:      30 * time.Second,
		ReleaseTimeout:   10 * time.Second,
	}
}
