// Package hash provides CRC32-Castagnoli (CRC32C) checksums.
//
// CRC32C is the checksum S3 validates uploads with, and it is hardware
// accelerated on x86 (SSE4.2) and ARM (CRC extension).
//
//	checksum := hash.CRC32C(data)
//
// For streaming checksums:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
package hash
