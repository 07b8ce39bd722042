package protocol

import "github.com/sigurn/crc16"

// CRC-16/MCRF4XX: init 0xFFFF, reflected, no final xor
var crcTable = crc16.MakeTable(crc16.CRC16_MCRF4XX)

// CRC16 calculates the checksum appended to capture records
func CRC16(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}
