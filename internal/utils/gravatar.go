package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// GravatarURL 按 Gravatar 约定由邮箱推导默认头像地址：
// 对小写去空白的邮箱取 MD5，拼接到固定前缀。找不到时返回自动生成的图案（d=identicon）。
func GravatarURL(email string, size int) string {
	if size <= 0 {
		size = 250
	}
	norm := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(norm))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=%d&d=identicon", hex.EncodeToString(sum[:]), size)
}
