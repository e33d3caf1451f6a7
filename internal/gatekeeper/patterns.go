package gatekeeper

import (
	"regexp"
	"strings"
)

// English patterns run against the lowercased, trimmed input. Word boundaries
// keep "hi" from matching "history" and "sup" from matching "supplier".
var (
	chitChatPatterns = compile(
		`^(hi|hello|hey|greetings|good morning|good afternoon|good evening)\b`,
		`^(how are you|what's up|sup|how's it going)\b`,
		`^(thank you|thanks|thx|ty)\b`,
		`^(bye|goodbye|see you|cya|farewell)\b`,
		`^(test|testing|check)[.!?]*$`,
		`^(ok|okay|yes|no|sure|alright)[.!?]*$`,
	)

	schemaPatterns = compile(
		`(what tables|which tables|list tables|show tables|all tables)`,
		`(table.*structure|database.*structure|schema.*structure)`,
		`(what columns|which columns|list columns|show columns)`,
		`(table.*relationship|how.*tables.*related|tables.*connected)`,
		`(describe.*table|explain.*table|table.*definition)`,
		`(what.*in.*database|what.*database.*contain)`,
		`(show.*schema|display.*schema|get.*schema)`,
		`(database.*design|data.*model)`,
	)

	negativePatterns = compile(
		`\b(incorrect|wrong|false|bad|error|mistake|fail)\b`,
		`(not right|not correct|not working)`,
		`(garbage data|hallucination|dummy value)`,
		`(data.*wrong|result.*wrong)`,
		`(doesn't make sense|nonsense)`,
	)
)

// Thai patterns run against the raw input; Thai has no letter case.
var (
	thaiChitChatPatterns = compile(
		`(สวัสดี|หวัดดี|ดีครับ|ดีค่ะ)`,
		`(ว่าไง|เป็นไง|ไงบ้าง)`,
		`(อรุณสวัสดิ์|สวัสดีตอนเช้า)`,
		`(ราตรีสวัสดิ์|สวัสดีตอนเย็น)`,
		`(สบายดีไหม|สบายดีมั้ย|เป็นอย่างไรบ้าง)`,
		`(ทำอะไรอยู่|กำลังทำอะไร)`,
		`(ขอบคุณ|ขอบใจ|แซงกิ้ว|แซงคิว)`,
		`(ขอบพระคุณ)`,
		`(ลาก่อน|บ๊ายบาย|บาย)`,
		`(ไปก่อน|ไปละ)`,
		`(แล้วพบกันใหม่)`,
		`^(ครับ|ค่ะ|จ้ะ|จ๊ะ)$`,
		`^(ได้|โอเค|ok)$`,
		`^(ทดสอบ|เช็ค|ลอง)$`,
		`(ชื่ออะไร|คุณชื่อ)`,
		`(ทำงานอะไร|อาชีพ)`,
	)

	thaiSchemaPatterns = compile(
		`(ตารางอะไรบ้าง|มีตารางอะไร|แสดงตาราง)`,
		`(โครงสร้างตาราง|โครงสร้างฐานข้อมูล)`,
		`(คอลัมน์อะไรบ้าง|มีคอลัมน์อะไร)`,
		`(ตารางเชื่อมโยง|ความสัมพันธ์ตาราง)`,
		`(อธิบายตาราง|บอกเกี่ยวกับตาราง)`,
		`(ฐานข้อมูลมีอะไร|ข้อมูลอะไรบ้าง)`,
	)

	thaiNegativePatterns = compile(
		`(ข้อมูลไม่ถูก|ข้อมูลผิด|ผลลัพธ์ผิด)`,
		`(ไม่ถูกต้อง|ไม่ใช่|มั่ว)`,
		`(ผิด|เพี้ยน|ไม่ได้เรื่อง)`,
		`(ทำงานไม่ถูก|ตอบไม่ถูก)`,
		`(มีปัญหา|เออเร่อ)`,
		`(ข้อมูล.*ไม่ตรง|ไม่เจอ)`,
		`(ไม่จริง|โกหก)`,
	)
)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func anyMatch(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// IsChitChat matches greetings, thanks, farewells and bare acknowledgements.
func IsChitChat(input string) bool {
	trimmed := strings.TrimSpace(input)
	return anyMatch(chitChatPatterns, strings.ToLower(trimmed)) || anyMatch(thaiChitChatPatterns, trimmed)
}

// IsSchemaQuestion matches questions about the database structure itself.
func IsSchemaQuestion(input string) bool {
	trimmed := strings.TrimSpace(input)
	return anyMatch(schemaPatterns, strings.ToLower(trimmed)) || anyMatch(thaiSchemaPatterns, trimmed)
}

// IsNegativeFeedback matches complaints about a previous answer.
func IsNegativeFeedback(input string) bool {
	trimmed := strings.TrimSpace(input)
	return anyMatch(negativePatterns, strings.ToLower(trimmed)) || anyMatch(thaiNegativePatterns, trimmed)
}

// containsThai reports whether s has any rune in the Thai block.
func containsThai(s string) bool {
	for _, r := range s {
		if r >= '\u0e00' && r <= '\u0e7f' {
			return true
		}
	}
	return false
}
