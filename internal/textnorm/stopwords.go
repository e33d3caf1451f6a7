package textnorm

var stopwords = func() map[string]struct{} {
	words := []string{
		// English function words, plus request verbs and SQL keywords that say
		// nothing about the data being asked for.
		"the", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "will", "would",
		"should", "could", "may", "might", "must", "can", "shall",
		"a", "an", "and", "or", "but", "if", "then", "else", "when",
		"at", "by", "for", "with", "about", "against", "between",
		"into", "through", "during", "before", "after", "above",
		"below", "to", "from", "up", "down", "in", "out", "on", "off",
		"over", "under", "again", "further", "once",
		"what", "which", "who", "whom", "whose", "where", "why", "how",
		"show", "get", "find", "list", "give", "tell", "me", "all", "any",
		"select", "order", "group", "having", "limit",
		"of", "that", "this", "these", "those", "i", "you", "he", "she", "it",
		"we", "they", "them", "their", "my", "your", "his", "her", "its", "our",

		// Thai
		"ของ", "ที่", "และ", "หรือ", "แต่", "ใน", "บน", "เพื่อ", "จาก", "ด้วย",
		"โดย", "เป็น", "คือ", "มี", "ได้", "จะ", "ควร", "อะไร", "เมื่อไหร่",
		"ที่ไหน", "ใคร", "อย่างไร", "ทำไม", "แสดง", "ให้", "ดู", "หา", "ค้นหา",
		"ทั้งหมด", "บ้าง", "ครับ", "ค่ะ",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
