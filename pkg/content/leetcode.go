package content

import (
	"fmt"
	"strings"
)

type Problem struct {
	ID         int
	Title      string
	Difficulty string
	Category   string
}

// Slug renders the problem as "0001-two-sum".
func (p Problem) Slug() string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(p.Title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return fmt.Sprintf("%04d-%s", p.ID, strings.TrimSuffix(b.String(), "-"))
}

var Problems = []Problem{
	{ID: 1, Title: "Two Sum", Difficulty: "Easy", Category: "Array"},
	{ID: 9, Title: "Palindrome Number", Difficulty: "Easy", Category: "Math"},
	{ID: 13, Title: "Roman to Integer", Difficulty: "Easy", Category: "String"},
	{ID: 14, Title: "Longest Common Prefix", Difficulty: "Easy", Category: "String"},
	{ID: 20, Title: "Valid Parentheses", Difficulty: "Easy", Category: "Stack"},
	{ID: 21, Title: "Merge Two Sorted Lists", Difficulty: "Easy", Category: "Linked List"},
	{ID: 26, Title: "Remove Duplicates from Sorted Array", Difficulty: "Easy", Category: "Array"},
	{ID: 27, Title: "Remove Element", Difficulty: "Easy", Category: "Array"},
	{ID: 28, Title: "Find the Index of the First Occurrence", Difficulty: "Easy", Category: "String"},
	{ID: 35, Title: "Search Insert Position", Difficulty: "Easy", Category: "Binary Search"},

	{ID: 2, Title: "Add Two Numbers", Difficulty: "Medium", Category: "Linked List"},
	{ID: 3, Title: "Longest Substring Without Repeating Characters", Difficulty: "Medium", Category: "Sliding Window"},
	{ID: 5, Title: "Longest Palindromic Substring", Difficulty: "Medium", Category: "Dynamic Programming"},
	{ID: 11, Title: "Container With Most Water", Difficulty: "Medium", Category: "Two Pointers"},
	{ID: 15, Title: "3Sum", Difficulty: "Medium", Category: "Array"},
	{ID: 17, Title: "Letter Combinations of a Phone Number", Difficulty: "Medium", Category: "Backtracking"},
	{ID: 22, Title: "Generate Parentheses", Difficulty: "Medium", Category: "Backtracking"},
	{ID: 33, Title: "Search in Rotated Sorted Array", Difficulty: "Medium", Category: "Binary Search"},
	{ID: 39, Title: "Combination Sum", Difficulty: "Medium", Category: "Backtracking"},
	{ID: 46, Title: "Permutations", Difficulty: "Medium", Category: "Backtracking"},

	{ID: 4, Title: "Median of Two Sorted Arrays", Difficulty: "Hard", Category: "Binary Search"},
	{ID: 10, Title: "Regular Expression Matching", Difficulty: "Hard", Category: "Dynamic Programming"},
	{ID: 23, Title: "Merge k Sorted Lists", Difficulty: "Hard", Category: "Heap"},
	{ID: 25, Title: "Reverse Nodes in k-Group", Difficulty: "Hard", Category: "Linked List"},
	{ID: 30, Title: "Substring with Concatenation of All Words", Difficulty: "Hard", Category: "Sliding Window"},
	{ID: 32, Title: "Longest Valid Parentheses", Difficulty: "Hard", Category: "Dynamic Programming"},
	{ID: 37, Title: "Sudoku Solver", Difficulty: "Hard", Category: "Backtracking"},
	{ID: 41, Title: "First Missing Positive", Difficulty: "Hard", Category: "Array"},
	{ID: 42, Title: "Trapping Rain Water", Difficulty: "Hard", Category: "Two Pointers"},
	{ID: 44, Title: "Wildcard Matching", Difficulty: "Hard", Category: "Dynamic Programming"},
}

var SolutionLanguages = []string{"python", "javascript", "java", "cpp"}

// PickProblem draws a problem and the language its solution is written in.
func PickProblem(picker Picker) (Problem, string) {
	if picker == nil {
		picker = RandomPicker
	}
	problem := Problems[picker.IntN(len(Problems))]
	language := SolutionLanguages[picker.IntN(len(SolutionLanguages))]
	return problem, language
}
