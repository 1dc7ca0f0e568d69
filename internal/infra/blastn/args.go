package blastn

import (
	"strconv"

	"github.com/jrjhealey/Oread/internal/domain"
)

// OutFmtTabular is blastn's fixed-column tabular layout consumed by ACT.
const OutFmtTabular = "6"

// BuildArgs maps every AlignmentParameters field one-to-one onto a blastn flag.
func BuildArgs(p domain.AlignmentParameters) []string {
	return []string{
		"-task", string(p.Task),
		"-subject", p.SubjectPath,
		"-query", p.QueryPath,
		"-evalue", strconv.FormatFloat(p.EValue, 'g', -1, 64),
		"-perc_identity", strconv.Itoa(p.PercentIdentity),
		"-strand", string(p.Strand),
		"-culling_limit", strconv.Itoa(p.CullingLimit),
		"-outfmt", OutFmtTabular,
		"-out", p.OutputPath,
	}
}
