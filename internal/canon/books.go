package canon

// defaultBooks contains the 66-book Protestant canon in canonical order.
var defaultBooks = []Book{
	{"genesis", "Genesis", 1, 50},
	{"exodus", "Exodus", 2, 40},
	{"leviticus", "Leviticus", 3, 27},
	{"numbers", "Numbers", 4, 36},
	{"deuteronomy", "Deuteronomy", 5, 34},
	{"joshua", "Joshua", 6, 24},
	{"judges", "Judges", 7, 21},
	{"ruth", "Ruth", 8, 4},
	{"1-samuel", "1 Samuel", 9, 31},
	{"2-samuel", "2 Samuel", 10, 24},
	{"1-kings", "1 Kings", 11, 22},
	{"2-kings", "2 Kings", 12, 25},
	{"1-chronicles", "1 Chronicles", 13, 29},
	{"2-chronicles", "2 Chronicles", 14, 36},
	{"ezra", "Ezra", 15, 10},
	{"nehemiah", "Nehemiah", 16, 13},
	{"esther", "Esther", 17, 10},
	{"job", "Job", 18, 42},
	{"psalms", "Psalms", 19, 150},
	{"proverbs", "Proverbs", 20, 31},
	{"ecclesiastes", "Ecclesiastes", 21, 12},
	{"song-of-solomon", "Song of Solomon", 22, 8},
	{"isaiah", "Isaiah", 23, 66},
	{"jeremiah", "Jeremiah", 24, 52},
	{"lamentations", "Lamentations", 25, 5},
	{"ezekiel", "Ezekiel", 26, 48},
	{"daniel", "Daniel", 27, 12},
	{"hosea", "Hosea", 28, 14},
	{"joel", "Joel", 29, 3},
	{"amos", "Amos", 30, 9},
	{"obadiah", "Obadiah", 31, 1},
	{"jonah", "Jonah", 32, 4},
	{"micah", "Micah", 33, 7},
	{"nahum", "Nahum", 34, 3},
	{"habakkuk", "Habakkuk", 35, 3},
	{"zephaniah", "Zephaniah", 36, 3},
	{"haggai", "Haggai", 37, 2},
	{"zechariah", "Zechariah", 38, 14},
	{"malachi", "Malachi", 39, 4},
	{"matthew", "Matthew", 40, 28},
	{"mark", "Mark", 41, 16},
	{"luke", "Luke", 42, 24},
	{"john", "John", 43, 21},
	{"acts", "Acts", 44, 28},
	{"romans", "Romans", 45, 16},
	{"1-corinthians", "1 Corinthians", 46, 16},
	{"2-corinthians", "2 Corinthians", 47, 13},
	{"galatians", "Galatians", 48, 6},
	{"ephesians", "Ephesians", 49, 6},
	{"philippians", "Philippians", 50, 4},
	{"colossians", "Colossians", 51, 4},
	{"1-thessalonians", "1 Thessalonians", 52, 5},
	{"2-thessalonians", "2 Thessalonians", 53, 3},
	{"1-timothy", "1 Timothy", 54, 6},
	{"2-timothy", "2 Timothy", 55, 4},
	{"titus", "Titus", 56, 3},
	{"philemon", "Philemon", 57, 1},
	{"hebrews", "Hebrews", 58, 13},
	{"james", "James", 59, 5},
	{"1-peter", "1 Peter", 60, 5},
	{"2-peter", "2 Peter", 61, 3},
	{"1-john", "1 John", 62, 5},
	{"2-john", "2 John", 63, 1},
	{"3-john", "3 John", 64, 1},
	{"jude", "Jude", 65, 1},
	{"revelation", "Revelation", 66, 22},
}

// Default returns an index over the 66-book Protestant canon.
func Default() *Index {
	return NewIndex(defaultBooks)
}
