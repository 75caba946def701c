package rendering

import (
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
)

// Preamble is the fixed document header: class, packages, margins and the resume macros
const Preamble = `\documentclass[letterpaper,11pt]{article}

\usepackage{latexsym}
\usepackage[empty]{fullpage}
\usepackage{titlesec}
\usepackage{marvosym}
\usepackage[usenames,dvipsnames]{color}
\usepackage{verbatim}
\usepackage{enumitem}
\usepackage[hidelinks]{hyperref}
\usepackage{fancyhdr}
\usepackage[english]{babel}
\usepackage{tabularx}
\input{glyphtounicode}

\pagestyle{fancy}
\fancyhf{}
\fancyfoot{}
\renewcommand{\headrulewidth}{0pt}
\renewcommand{\footrulewidth}{0pt}

\addtolength{\oddsidemargin}{-0.5in}
\addtolength{\evensidemargin}{-0.5in}
\addtolength{\textwidth}{1in}
\addtolength{\topmargin}{-.5in}
\addtolength{\textheight}{1.0in}

\urlstyle{same}

\raggedbottom
\raggedright
\setlength{\tabcolsep}{0in}

\titleformat{\section}{
  \vspace{-4pt}\scshape\raggedright\large
}{}{0em}{}[\color{black}\titlerule \vspace{-5pt}]

\pdfgentounicode=1

\newcommand{\resumeItem}[1]{\item\small{{#1 \vspace{-2pt}}}}

\newcommand{\resumeSubheading}[4]{
  \vspace{-2pt}\item
  \begin{tabular*}{0.97\textwidth}[t]{l@{\extracolsep{\fill}}r}
    \textbf{#1} & #2 \\
    \textit{\small#3} & \textit{\small #4} \\
  \end{tabular*}\vspace{-7pt}
}

\newcommand{\resumeProjectHeading}[2]{
    \item
    \begin{tabular*}{0.97\textwidth}{l@{\extracolsep{\fill}}r}
      \small#1 & #2 \\
    \end{tabular*}\vspace{-7pt}
}

\newcommand{\resumeSubHeadingListStart}{\begin{itemize}[leftmargin=0.15in, label={}]}
\newcommand{\resumeSubHeadingListEnd}{\end{itemize}}
\newcommand{\resumeItemListStart}{\begin{itemize}}
\newcommand{\resumeItemListEnd}{\end{itemize}\vspace{-5pt}}

\begin{document}
`

// Epilogue closes the document
const Epilogue = `
\end{document}
`

// Sections holds the rendered fragment of every section; an empty string means the section is omitted
type Sections struct {
	Header       string
	Education    string
	Skills       string
	Experience   string
	Projects     string
	Achievements string
}

// RenderSections normalizes the record and renders every section
func RenderSections(record *types.ResumeRecord) Sections {
	if record == nil {
		return Sections{}
	}
	return Sections{
		Header:       RenderHeader(record.PersonalInfo),
		Education:    RenderEducation(record.Education),
		Skills:       RenderSkills(NormalizeSkills(record.Skills)),
		Experience:   RenderExperience(record.Experience),
		Projects:     RenderProjects(record.Projects),
		Achievements: RenderAchievements(NormalizeBullets(record.Achievements)),
	}
}

// Ordered returns the non-empty fragments in canonical order
func (s Sections) Ordered() []string {
	all := []string{s.Header, s.Education, s.Skills, s.Experience, s.Projects, s.Achievements}
	fragments := make([]string, 0, len(all))
	for _, fragment := range all {
		if fragment != "" {
			fragments = append(fragments, fragment)
		}
	}
	return fragments
}

// RenderDocument assembles a complete, self-contained LaTeX document from a resume record.
// It never fails: sections that resolve to nothing are left out.
func RenderDocument(record *types.ResumeRecord) string {
	return assemble(RenderSections(record).Ordered())
}

func assemble(fragments []string) string {
	var b strings.Builder
	b.WriteString(Preamble)
	for _, fragment := range fragments {
		b.WriteString("\n")
		b.WriteString(fragment)
	}
	b.WriteString(Epilogue)
	return b.String()
}
