// Package dbf reads xBase DBF version 5 files as a stream of typed records.
//
// The header and field descriptor table are parsed once when a Reader is
// created. Records are then decoded one fixed width slot at a time:
//
//	r, err := dbf.Open("parcels.dbf", dbf.DefaultConfig().WithCodec("cp1252"))
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	for batch, err := range r.Chunks(10000) {
//		if err != nil {
//			return err
//		}
//		// batch.Records holds at most 10000 live records
//	}
//
// Soft deleted records are skipped. Malformed field data never stops decoding:
// numeric fields degrade to NaN and character, date and logical fields to the
// configured missing value sentinel. Only header errors, unsupported field types
// and truncated records are reported as errors.
package dbf
