/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: table.go
Description: Diagnostic table printed for failing cases.
*/

package gof

import (
	"fmt"
	"io"
)

// WriteTable renders rows as tab separated EXPECT, ACTUAL, CHI and VALUE columns.
func WriteTable(w io.Writer, rows []Row) error {
	if _, err := fmt.Fprintln(w, "EXPECT\tACTUAL\tCHI\tVALUE"); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%.1f\t%d\t%+.1f\t%s\n", row.Expect, row.Actual, row.Chi, row.Latent); err != nil {
			return err
		}
	}
	return nil
}
