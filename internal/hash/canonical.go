// Package hash 提供确定性的规范化哈希
//
// 哈希结果只取决于字段的逻辑内容: 序列化时所有层级的 map key 按字典序排序,
// 无多余空白, 非原生标量 (金额/时间戳) 由调用方先渲染为固定的字符串/整数表示。
// 两个逻辑相等的记录无论字段构造顺序如何, 摘要必须一致。
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HexLength 摘要的十六进制长度
const HexLength = 64

// Canonical 返回字段集的规范化 JSON 字节串
//
// encoding/json 对 map key 做字典序排序, 嵌套 map 同样适用;
// 数组保持元素顺序。字段值只允许 JSON 可表示的类型。
func Canonical(fields map[string]any) ([]byte, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("canonicalize fields: %w", err)
	}
	return data, nil
}

// Digest 计算字段集的 SHA-256 摘要, 返回 64 位小写十六进制
func Digest(fields map[string]any) (string, error) {
	data, err := Canonical(fields)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// MeetsDifficulty 判断摘要是否满足难度要求 (前 difficulty 位十六进制字符为 '0')
func MeetsDifficulty(digest string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if len(digest) < difficulty {
		return false
	}
	for i := 0; i < difficulty; i++ {
		if digest[i] != '0' {
			return false
		}
	}
	return true
}
