package chclient

import "strings"

// escapeReplacer 先转义反斜杠再转义单引号，保证变换可逆
var escapeReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

var unescapeReplacer = strings.NewReplacer(`\'`, `'`, `\\`, `\`)

// Escape 转义将被嵌入查询文本的字符串字段
// 所有进入查询载荷的字符串必须且只经过这一个函数，防止单引号破坏语法或注入。
func Escape(s string) string {
	return escapeReplacer.Replace(s)
}

// Unescape 还原 Escape 的输出
func Unescape(s string) string {
	return unescapeReplacer.Replace(s)
}
