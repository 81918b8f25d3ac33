package carve

const (
	// BlockSize 读取与签名检测的块大小(字节), 签名仅在块首被检测.
	BlockSize = 512

	// SignatureLen 签名检测需要的块首字节数.
	SignatureLen = 4
)

const (
	soiMarker0 = 0xFF
	soiMarker1 = 0xD8
	appPrefix  = 0xFF

	appMask = 0xF0
	appBase = 0xE0
)

// IsSignature 判断块首4字节是否为 JPEG 起始标记(SOI)紧跟 APP0-APP15 标记.
// 即 FF D8 FF Ex, 其中 x 取 0x0-0xF.
func IsSignature(block []byte) bool {
	if len(block) < SignatureLen {
		return false
	}
	return block[0] == soiMarker0 &&
		block[1] == soiMarker1 &&
		block[2] == appPrefix &&
		block[3]&appMask == appBase
}
