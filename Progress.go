package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Tensai75/cmpb"
	"github.com/fatih/color"
)

var (
	okString   = color.New(color.FgHiGreen).SprintFunc()
	failString = color.New(color.FgHiRed).SprintFunc()
)

// Progress shows one bar counting decoded files. Without a bar it prints
// one OK/FAIL line per file.
type Progress struct {
	mux   sync.Mutex
	out   io.Writer
	bars  *cmpb.Progress
	bar   *cmpb.Bar
	total int
	done  int
}

// setColors switches colored console output on or off for the whole process.
func setColors(on bool) {
	color.NoColor = !on
}

func NewProgress(out io.Writer, key string, total int, bar bool, colors bool) *Progress {
	p := &Progress{out: out, total: total}
	if !bar || total <= 0 {
		return p
	}
	p.bars = cmpb.NewWithParam(&cmpb.Param{
		Interval:     500 * time.Millisecond,
		Out:          color.Output,
		ScrollUp:     cmpb.AnsiScrollUp,
		PrePad:       1,
		KeyWidth:     8,
		MsgWidth:     8,
		PreBarWidth:  12,
		BarWidth:     42,
		PostBarWidth: 4,
		Post:         "...",
		KeyDiv:       ':',
		LBracket:     '[',
		RBracket:     ']',
		Empty:        '-',
		Full:         '=',
		Curr:         '>',
	})
	p.bar = p.bars.NewBar(key, total)
	p.bar.SetPreBar(cmpb.CalcSteps)
	p.bar.SetPostBar(cmpb.CalcTime)
	if colors {
		barColors := new(cmpb.BarColors)
		barColors.Post, barColors.KeyDiv, barColors.LBracket, barColors.RBracket =
			color.HiCyanString, color.HiCyanString, color.HiCyanString, color.HiCyanString
		barColors.Key = color.HiWhiteString
		barColors.Msg, barColors.Empty = color.HiYellowString, color.HiYellowString
		barColors.Full = color.HiGreenString
		barColors.Curr = color.GreenString
		barColors.PreBar, barColors.PostBar = color.HiYellowString, color.HiMagentaString
		p.bars.SetColors(barColors)
	}
	p.bars.Start()
	return p
} // end func NewProgress

// FileDone counts res and reports it.
func (p *Progress) FileDone(res *FileResult) {
	p.mux.Lock()
	defer p.mux.Unlock()
	p.done++
	if p.bar == nil {
		printResult(p.out, res)
		return
	}
	p.bar.Increment()
	if res.OK() {
		p.bar.SetMessage("ok")
	} else {
		p.bar.SetMessage("FAIL")
	}
} // end func FileDone

// Wait blocks until the bar has been drawn to the end. A bar that can not
// finish (canceled run) is left as is.
func (p *Progress) Wait() {
	p.mux.Lock()
	finished := p.bars != nil && p.done >= p.total
	p.mux.Unlock()
	if finished {
		p.bars.Wait()
	}
}

func printResult(w io.Writer, res *FileResult) {
	if res.OK() {
		fmt.Fprintf(w, "%s '%s' -> '%s' (parts=%d bytes=%d took=%v)\n", okString("OK  "), res.Name, res.Target, res.Parts, res.Bytes, res.Took.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(w, "%s '%s': %s\n", failString("FAIL"), res.Name, res.Err)
} // end func printResult
