package gatekeeper

const greetingReply = "สวัสดีครับ/ค่ะ! ผมเป็นผู้ช่วยแปลงคำถามเป็นคำสั่ง SQL มีอะไรให้ช่วยเกี่ยวกับข้อมูลในฐานข้อมูลของคุณไหมครับ/ค่ะ? | " +
	"Hello! I'm your SQL Assistant. Ask me anything about the data in your connected database and I'll write the query for you."

const (
	defaultChitChatReply   = "Hello! How can I help you?"
	defaultOutOfScopeReply = "Sorry, that information is not available in the database."
)

const troubleshootingThai = `ขออภัยในความไม่สะดวกครับ/ค่ะ 🙏

ดูเหมือนว่าระบบอาจเลือกตารางหรือค่าข้อมูลที่ไม่ตรงกับคำถามของคุณ ทำให้คำตอบไม่ถูกต้อง

**วิธีแก้ไข:**
1. **ระบุชื่อตารางหรือคอลัมน์** ที่ต้องการในคำถามให้ชัดเจนยิ่งขึ้น
2. หากโครงสร้างฐานข้อมูลเพิ่งมีการเปลี่ยนแปลง ให้ **ล้างแคชของ schema** (DELETE /api/v1/cache) แล้วส่งคำถามใหม่
3. ลองเรียบเรียงคำถามใหม่ให้สั้นและตรงประเด็น

หากยังพบปัญหา กรุณาระบุค่าที่ต้องการค้นหา เช่น ชื่อสินค้าหรือรหัสสินค้า ให้ตรงกับที่อยู่ในฐานข้อมูล`

const troubleshootingEnglish = `We apologize for the inconvenience. 🙏

It appears the system may have picked tables or values that do not match your question, resulting in an incorrect answer.

**How to fix:**
1. **Name the tables or columns** you are interested in explicitly
2. If the database structure changed recently, **clear the schema cache** (DELETE /api/v1/cache) and ask again
3. Rephrase the question to be shorter and more specific

If the issue persists, include the exact values you are looking for, such as a product name or code as stored in the database.`

// TroubleshootingMessage returns the negative-feedback reply in Thai when the
// input contains Thai script, otherwise in English.
func TroubleshootingMessage(input string) string {
	if containsThai(input) {
		return troubleshootingThai
	}
	return troubleshootingEnglish
}
