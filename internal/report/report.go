package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/clipforge/api/internal/model"
)

const (
	summarySheet = "Summary"
	clipsSheet   = "Clips"
	postsSheet   = "Posts"
)

// BuildClipReport renders an asset's pipeline outcome as an xlsx
// workbook: one summary sheet, one row per clip, one row per post
// attempt.
func BuildClipReport(asset *model.ContentAsset, clips []*model.Clip, postsByClip map[string][]*model.Post) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(clipsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(postsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeSummary(f, asset, len(clips)); err != nil {
		return nil, err
	}
	if err := writeClips(f, headerStyle, clips); err != nil {
		return nil, err
	}
	if err := writePosts(f, headerStyle, clips, postsByClip); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

func writeSummary(f *excelize.File, asset *model.ContentAsset, clipCount int) error {
	rows := [][]interface{}{
		{"Asset ID", asset.ID},
		{"Title", asset.Title},
		{"Source URL", asset.SourceURL},
		{"Status", string(asset.Status)},
		{"Current Stage", fmt.Sprintf("%d - %s", asset.Stage, model.StageName(asset.Stage))},
		{"Clips", clipCount},
		{"Created", asset.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Updated", asset.UpdatedAt.Format("2006-01-02 15:04:05")},
	}
	for stage := 1; stage <= model.StageCount; stage++ {
		detail := string(model.StageStatusPending)
		if rec := asset.StageRecordAt(stage); rec.Status != "" {
			summary := rec.Message
			if rec.Error != "" {
				summary = rec.Error
			}
			detail = fmt.Sprintf("%s %s", rec.Status, summary)
		}
		rows = append(rows, []interface{}{
			fmt.Sprintf("Stage %d: %s", stage, model.StageName(stage)),
			detail,
		})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 40)
}

func writeClips(f *excelize.File, headerStyle int, clips []*model.Clip) error {
	header := []interface{}{"Clip ID", "Start (s)", "End (s)", "Duration (s)", "Virality Score", "Status", "File URL", "Archive URL", "Source Text"}
	if err := f.SetSheetRow(clipsSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(clipsSheet, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, clip := range clips {
		row := []interface{}{
			clip.ID,
			clip.StartTime,
			clip.EndTime,
			clip.Duration,
			clip.ViralityScore,
			string(clip.Status),
			clip.FileURL,
			clip.ArchiveURL,
			strings.Join(clip.SourceTexts, " "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(clipsSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(clipsSheet, "A", "I", 24)
}

func writePosts(f *excelize.File, headerStyle int, clips []*model.Clip, postsByClip map[string][]*model.Post) error {
	header := []interface{}{"Post ID", "Clip ID", "Platform", "Status", "Post URL", "Error"}
	if err := f.SetSheetRow(postsSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(postsSheet, 1, 1, headerStyle); err != nil {
		return err
	}

	rowIdx := 2
	for _, clip := range clips {
		for _, post := range postsByClip[clip.ID] {
			row := []interface{}{
				post.ID,
				post.ClipID,
				string(post.Platform),
				string(post.Status),
				post.PostURL,
				post.ErrorMessage,
			}
			cell, err := excelize.CoordinatesToCellName(1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(postsSheet, cell, &row); err != nil {
				return err
			}
			rowIdx++
		}
	}
	return f.SetColWidth(postsSheet, "A", "F", 28)
}
