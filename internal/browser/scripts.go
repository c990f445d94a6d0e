package browser

// In-page scripts. Element handles resolve through window.__colligoNodes,
// repopulated on every Find/FindAll; callers re-query after anything that
// mutates the page, the same way a human retries after the list re-renders.

// registerNodesJS stores all matches for a selector and returns the count.
// %s: JSON-quoted selector.
const registerNodesJS = `(() => {
	const nodes = Array.from(document.querySelectorAll(%s));
	window.__colligoNodes = nodes;
	return nodes.length;
})()`

// registerNodesByTextJS stores all matches for a selector and returns the
// index of the first whose trimmed text equals the given string, or -1.
// %s, %s: JSON-quoted selector and text.
const registerNodesByTextJS = `(() => {
	const nodes = Array.from(document.querySelectorAll(%s));
	window.__colligoNodes = nodes;
	const want = %s;
	return nodes.findIndex(n => (n.textContent || '').trim() === want);
})()`

// clickNodeJS clicks a registered node, descending up to three levels into
// nested clickable children first. WhatsApp attaches handlers to inner
// wrappers, so clicking the outer card alone is often a no-op. Synthetic
// mousedown/mouseup precede the click because some handlers only listen for
// those. %d: node index.
const clickNodeJS = `(() => {
	let n = (window.__colligoNodes || [])[%d];
	if (!n) return false;
	for (let depth = 0; depth < 3; depth++) {
		const inner = n.querySelector(':scope > div, :scope > span, :scope > [role="button"]');
		if (!inner) break;
		n = inner;
	}
	if (typeof n.focus === 'function') n.focus();
	const opts = { bubbles: true, cancelable: true, view: window };
	n.dispatchEvent(new MouseEvent('mousedown', opts));
	n.dispatchEvent(new MouseEvent('mouseup', opts));
	n.dispatchEvent(new MouseEvent('click', opts));
	if (typeof n.click === 'function') n.click();
	return true;
})()`

// insertTextJS focuses a registered contenteditable node and types into it,
// replacing any existing content and firing the input event the page
// listens for. %d, %s: node index, JSON-quoted text.
const insertTextJS = `(() => {
	const n = (window.__colligoNodes || [])[%d];
	if (!n) return false;
	n.focus();
	n.dispatchEvent(new MouseEvent('click', { bubbles: true, cancelable: true, view: window }));
	document.execCommand('selectAll', false, null);
	const text = %s;
	document.execCommand('insertText', false, text);
	n.dispatchEvent(new InputEvent('input', { bubbles: true, data: text }));
	return true;
})()`

// scrollNodeJS scrolls a registered node into the viewport. %d: node index.
const scrollNodeJS = `(() => {
	const n = (window.__colligoNodes || [])[%d];
	if (!n) return false;
	n.scrollIntoView({ block: 'center' });
	return true;
})()`

// nodeOuterHTMLJS returns a registered node's outerHTML, or null when the
// handle is stale. %d: node index.
const nodeOuterHTMLJS = `(() => {
	const n = (window.__colligoNodes || [])[%d];
	return n ? n.outerHTML : null;
})()`

// textBeforeAnchorJS scrolls the anchor into view and reads its previous
// sibling's text. Returns null when the anchor is absent. %s: JSON-quoted
// selector.
const textBeforeAnchorJS = `(() => {
	const anchor = document.querySelector(%s);
	if (!anchor) return null;
	anchor.scrollIntoView({ block: 'center' });
	const prev = anchor.previousElementSibling;
	return prev ? (prev.textContent || '') : '';
})()`

// captureImagesJS re-encodes every detail image to a JPEG data URL through a
// canvas. Cross-origin images taint the canvas and throw; those are skipped.
// %s, %f: JSON-quoted selector, JPEG quality.
const captureImagesJS = `(() => {
	const out = [];
	const imgs = document.querySelectorAll(%s);
	for (const img of imgs) {
		try {
			const canvas = document.createElement('canvas');
			canvas.width = img.naturalWidth;
			canvas.height = img.naturalHeight;
			const ctx = canvas.getContext('2d');
			ctx.drawImage(img, 0, 0);
			out.push(canvas.toDataURL('image/jpeg', %f));
		} catch (e) {
			// Tainted canvas, skip
		}
	}
	return out;
})()`
