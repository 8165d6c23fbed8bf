package utils

import (
	"crypto/rand"
	"io"
)

// RandURLSafeString 生成长度为 n 的 URL 安全随机字符串（字符集 [A-Za-z0-9-_]）。
func RandURLSafeString(n int) (string, error) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	const mask = 63 // 0b111111 覆盖 0..63，和 alphabet 长度匹配
	if n <= 0 {
		return "", nil
	}
	out := make([]byte, n)
	// 每次读取足够的随机字节，按位与 mask 取下标，丢弃越界值以避免偏倚
	buf := make([]byte, n)
	i := 0
	for i < n {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			idx := int(b & mask)
			if idx < len(alphabet) {
				out[i] = alphabet[idx]
				i++
				if i >= n {
					break
				}
			}
		}
	}
	return string(out), nil
}
