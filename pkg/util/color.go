package util

import (
	"fmt"
	"math/rand"
)

// RandomLightColor 生成随机浅色 hsl 字符串，作为无头像用户的底色。
// 饱和度 50%-100%、亮度 75%-90%，保证深色文字可读。
func RandomLightColor() string {
	h := rand.Intn(360)
	s := 50 + rand.Intn(50)
	l := 75 + rand.Intn(15)
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", h, s, l)
}
