package repository

import (
	"math/rand"
	"strings"
	"time"
)

func isRedisWrongType(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "WRONGTYPE")
}

// getRandomExpireTime 生成带随机抖动的过期时间
// 返回: 基础过期时间 ± 10% 的随机时间，避免缓存雪崩
func getRandomExpireTime(baseExpire time.Duration) time.Duration {
	jitterRange := float64(baseExpire) * 0.1
	jitter := time.Duration(rand.Float64()*float64(jitterRange)*2 - float64(jitterRange))

	return baseExpire + jitter
}

// getRandomBool 以给定概率返回 true（读路径概率续期用）
func getRandomBool(probability float64) bool {
	return rand.Float64() < probability
}
